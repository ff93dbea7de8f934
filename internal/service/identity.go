package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"

	"mysns/internal/cache"
	"mysns/internal/logger"
	"mysns/internal/metrics"
	"mysns/internal/model"
	"mysns/internal/repository"
)

const (
	maxHandleAttempts = 5
	handleSuffixLen   = 4
)

// IdentityService maps identities asserted by the external provider to user records.
type IdentityService struct {
	userRepo repository.UserRepository
	cache    cache.IdentityCache
}

// NewIdentityService creates the resolver. idCache may be nil.
func NewIdentityService(userRepo repository.UserRepository, idCache cache.IdentityCache) *IdentityService {
	return &IdentityService{userRepo: userRepo, cache: idCache}
}

// Resolve returns the user for the identity, creating it on first sight.
func (s *IdentityService) Resolve(ctx context.Context, id model.Identity) (*model.User, error) {
	if strings.TrimSpace(id.ExternalID) == "" {
		return nil, model.ErrMissingIdentity
	}

	base := deriveHandle(id)
	for attempt := 0; attempt < maxHandleAttempts; attempt++ {
		handle := base
		if attempt > 0 {
			handle = withSuffix(base)
		}

		u := &model.User{
			ExternalID:  id.ExternalID,
			Username:    handle,
			DisplayName: nonEmpty(id.Name),
			AvatarURL:   nonEmpty(id.AvatarURL),
		}
		created, err := s.userRepo.Upsert(ctx, u)
		if errors.Is(err, model.ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if created {
			logger.Ctx(ctx).Info().
				Str(logger.FieldComponent, "identity").
				Str(logger.FieldUserID, u.ID.String()).
				Str("username", u.Username).
				Msg("user created on first sight")
		}
		s.remember(ctx, id.ExternalID, u.ID)
		return u, nil
	}
	return nil, model.ErrHandleExhausted
}

// ResolveID is the per-request path: the cache answers when it can and the
// database upsert fills it otherwise.
func (s *IdentityService) ResolveID(ctx context.Context, id model.Identity) (uuid.UUID, error) {
	if s.cache != nil && id.ExternalID != "" {
		userID, found, err := s.cache.Get(ctx, id.ExternalID)
		switch {
		case err != nil:
			metrics.IdentityCacheLookups.WithLabelValues("error").Inc()
			logger.Ctx(ctx).Warn().Err(err).Str(logger.FieldComponent, "identity").Msg("identity cache read failed")
		case found:
			metrics.IdentityCacheLookups.WithLabelValues("hit").Inc()
			return userID, nil
		default:
			metrics.IdentityCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	u, err := s.Resolve(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

func (s *IdentityService) remember(ctx context.Context, externalID string, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, externalID, userID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str(logger.FieldComponent, "identity").Msg("identity cache write failed")
	}
}

// deriveHandle picks the token's username, then the email local part, then a
// name built from the external id.
func deriveHandle(id model.Identity) string {
	if h := sanitizeHandle(id.Username); h != "" {
		return h
	}
	if at := strings.IndexByte(id.Email, '@'); at > 0 {
		if h := sanitizeHandle(id.Email[:at]); h != "" {
			return h
		}
	}
	ext := sanitizeHandle(strings.TrimPrefix(id.ExternalID, "user_"))
	if len(ext) > 8 {
		ext = ext[:8]
	}
	if ext == "" {
		ext = randomHex(8)
	}
	return "user_" + ext
}

func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if isHandleRune(r) {
			b.WriteRune(r)
		}
	}
	h := b.String()
	if max := model.MaxUsernameLength - handleSuffixLen - 1; len(h) > max {
		h = h[:max]
	}
	return h
}

func isHandleRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_'
}

func withSuffix(base string) string {
	return base + "_" + randomHex(handleSuffixLen)
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("0", n)
	}
	return hex.EncodeToString(buf)[:n]
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
