package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mysns/internal/httputil"
	"mysns/internal/logger"
	"mysns/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey holds the verified model.Identity from the token.
	IdentityKey contextKey = "identity"
	// UserIDKey holds the resolved internal user id.
	UserIDKey contextKey = "user_id"
)

// Cookies checked when no Authorization header is present. The first is the
// session cookie set by the identity provider's web SDK.
var tokenCookies = []string{"__session", "access_token"}

// IdentityResolver maps a verified identity to an internal user id.
type IdentityResolver interface {
	ResolveID(ctx context.Context, id model.Identity) (uuid.UUID, error)
}

// TokenVerifier validates provider-issued HMAC tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses the token and returns the identity it asserts.
func (v *TokenVerifier) Verify(tokenString string) (model.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, &model.Error{Kind: model.ErrUnauthenticated, Code: model.CodeTokenExpired, Message: "Access token has expired"}
		}
		return model.Identity{}, &model.Error{Kind: model.ErrUnauthenticated, Code: model.CodeTokenInvalid, Message: "Invalid authentication token"}
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return model.Identity{}, &model.Error{Kind: model.ErrUnauthenticated, Code: model.CodeTokenInvalid, Message: "Invalid token claims"}
	}

	return model.Identity{
		ExternalID: sub,
		Username:   stringClaim(claims, "username"),
		Email:      stringClaim(claims, "email"),
		Name:       stringClaim(claims, "name"),
		AvatarURL:  stringClaim(claims, "picture"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// bearerToken checks the Authorization header first (mobile), then cookies (web).
func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	for _, name := range tokenCookies {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// AuthMiddleware verifies the token and resolves the caller to an internal id.
// Requests without a valid token are rejected with 401.
func AuthMiddleware(verifier *TokenVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenMissing, "Missing authentication token")
				return
			}

			ctx, err := authenticate(r.Context(), verifier, resolver, tokenString)
			if err != nil {
				httputil.WriteDomainError(w, r, err, "Failed to resolve identity")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware(verifier *TokenVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := authenticate(r.Context(), verifier, resolver, tokenString)
			if err != nil {
				logger.Ctx(r.Context()).Debug().Err(err).Msg("ignoring unusable token on public route")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, verifier *TokenVerifier, resolver IdentityResolver, tokenString string) (context.Context, error) {
	identity, err := verifier.Verify(tokenString)
	if err != nil {
		return ctx, err
	}

	userID, err := resolver.ResolveID(ctx, identity)
	if err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, IdentityKey, identity)
	ctx = context.WithValue(ctx, UserIDKey, userID)

	l := logger.Ctx(ctx).With().Str(logger.FieldUserID, userID.String()).Logger()
	return logger.WithLogger(ctx, l), nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetIdentityFromContext returns the verified token identity.
func GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(model.Identity)
	return identity, ok
}

// WithUserID is used by tests to simulate an authenticated request.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
