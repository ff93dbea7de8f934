package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mysns/internal/logger"
	"mysns/internal/model"
	"mysns/internal/queue"
	"mysns/internal/repository"
	"mysns/internal/storage"
)

// UserService serves profiles, profile edits and user search.
type UserService struct {
	repo             repository.UserRepository
	followRepo       repository.FollowRepository
	postRepo         repository.PostRepository
	media            storage.MediaStore
	publisher        queue.Publisher
	defaultAvatarKey string
}

func NewUserService(
	repo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	media storage.MediaStore,
	publisher queue.Publisher,
	defaultAvatarKey string,
) *UserService {
	return &UserService{
		repo:             repo,
		followRepo:       followRepo,
		postRepo:         postRepo,
		media:            media,
		publisher:        publisher,
		defaultAvatarKey: defaultAvatarKey,
	}
}

// GetProfile resolves ref as an internal id first and as an external id
// otherwise, then fans out for the live counts.
func (s *UserService) GetProfile(ctx context.Context, ref string, viewerID *uuid.UUID) (*model.Profile, error) {
	var (
		user *model.User
		err  error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		user, err = s.repo.GetByID(ctx, id)
	} else {
		user, err = s.repo.GetByExternalID(ctx, ref)
	}
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{User: *user}
	profile.IsOwnProfile = viewerID != nil && *viewerID == user.ID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile.PostsCount, err = s.postRepo.CountByUser(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		profile.FollowersCount, err = s.followRepo.CountFollowers(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		profile.FollowingCount, err = s.followRepo.CountFollowing(gctx, user.ID)
		return err
	})
	if viewerID != nil && !profile.IsOwnProfile {
		viewer := *viewerID
		g.Go(func() (err error) {
			profile.IsFollowing, err = s.followRepo.Exists(gctx, viewer, user.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile applies the non-nil fields. A replaced avatar is queued for deletion.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req model.UpdateProfileRequest) (*model.User, error) {
	var upd repository.UserUpdate

	if req.Username != nil {
		handle := strings.ToLower(strings.TrimSpace(*req.Username))
		if !validHandle(handle) {
			return nil, model.ErrInvalidUsername
		}
		upd.Username = &handle
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if utf8.RuneCountInString(name) > model.MaxDisplayNameLength {
			return nil, model.ErrDisplayNameTooLong
		}
		upd.DisplayName = &name
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		upd.Bio = &bio
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.AvatarKey != nil {
		key := strings.TrimPrefix(strings.TrimSpace(*req.AvatarKey), "/")
		ok, err := s.media.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.ErrMediaNotFound
		}
		url := s.media.PublicURL(key)
		upd.AvatarKey = &key
		upd.AvatarURL = &url
	}

	updated, err := s.repo.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	if upd.AvatarKey != nil && current.AvatarKey != nil {
		s.releaseAvatar(ctx, userID, *current.AvatarKey, *upd.AvatarKey)
	}
	return updated, nil
}

func (s *UserService) releaseAvatar(ctx context.Context, userID uuid.UUID, oldKey, newKey string) {
	if s.publisher == nil || oldKey == "" || oldKey == newKey || oldKey == s.defaultAvatarKey {
		return
	}
	event := queue.NewAvatarReplacedEvent(userID, oldKey)
	if _, err := s.publisher.Publish(ctx, queue.StreamMedia, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str(logger.FieldUserID, userID.String()).
			Str("old_key", oldKey).
			Msg("failed to publish avatar.replaced")
	}
}

// Search finds users by handle or display name prefix. Follow status is added
// with one batched query when a viewer is known.
func (s *UserService) Search(ctx context.Context, query string, viewerID *uuid.UUID) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSummary{}, nil
	}

	users, err := s.repo.Search(ctx, query, model.MaxSearchResults)
	if err != nil {
		return nil, err
	}

	if viewerID != nil && len(users) > 0 {
		ids := make([]uuid.UUID, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		followMap, err := s.followRepo.CheckFollows(ctx, *viewerID, ids)
		if err == nil {
			for i := range users {
				users[i].IsFollowing = followMap[users[i].ID]
			}
		}
	}
	return nonNil(users), nil
}

func validHandle(h string) bool {
	if h == "" || len(h) > model.MaxUsernameLength {
		return false
	}
	for _, r := range h {
		if !isHandleRune(r) {
			return false
		}
	}
	return true
}
