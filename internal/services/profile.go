package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/capoo-pm/apiserver/internal/events"
	"github.com/capoo-pm/apiserver/internal/storage"
	"github.com/capoo-pm/apiserver/internal/store"
	"github.com/capoo-pm/apiserver/types"
	"github.com/google/uuid"
)

// MaxAvatarBytes caps the size of an uploaded avatar.
const MaxAvatarBytes = 5 << 20

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStore persists avatar images and addresses them publicly.
type AvatarStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Avatar is an uploaded avatar image.
type Avatar struct {
	ContentType string
	Data        []byte
}

// ProfileService reads and edits the authenticated user's own profile.
type ProfileService struct {
	repo      UserRepository
	avatars   AvatarStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProfileService wires the profile use-cases. avatars may be nil, in which
// case avatar uploads are rejected.
func NewProfileService(repo UserRepository, avatars AvatarStore, publisher events.Publisher, logger *slog.Logger) *ProfileService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		repo:      repo,
		avatars:   avatars,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// AvatarUploadsEnabled reports whether an avatar store is configured.
func (s *ProfileService) AvatarUploadsEnabled() bool {
	return s.avatars != nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(KindNotFound, KeyUserNotFound, err)
		}
		return types.User{}, unexpected("load user", err)
	}
	return user, nil
}

// UpdateProfile applies the provided name/avatar fields. Email and password
// cannot change through this path.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, update types.UserUpdate) (types.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return types.User{}, newError(KindValidation, KeyValidationFailed, errors.New("name must not be empty"))
		}
		update.Name = &name
	}
	if update.AvatarURL != nil && strings.TrimSpace(*update.AvatarURL) == "" {
		return types.User{}, newError(KindValidation, KeyValidationFailed, errors.New("avatarUrl must not be empty"))
	}

	user, err := s.repo.Update(ctx, userID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(KindNotFound, KeyUserNotFound, err)
		}
		return types.User{}, unexpected("update user", err)
	}

	publishEvent(ctx, s.publisher, s.logger, events.TypeUserProfileUpdated, user, s.now())
	return user, nil
}

// UploadAvatar stores a new avatar image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, avatar Avatar) (types.User, error) {
	if s.avatars == nil {
		return types.User{}, newError(KindBadRequest, KeyAvatarUploadsDisabled, nil)
	}

	ext, ok := avatarExtensions[avatar.ContentType]
	if !ok {
		return types.User{}, newError(KindValidation, KeyUnsupportedAvatar,
			fmt.Errorf("unsupported content type %q", avatar.ContentType))
	}
	if len(avatar.Data) == 0 || len(avatar.Data) > MaxAvatarBytes {
		return types.User{}, newError(KindValidation, KeyUnsupportedAvatar,
			fmt.Errorf("avatar must be between 1 and %d bytes", MaxAvatarBytes))
	}

	key := storage.AvatarKey(userID, ext)
	if err := s.avatars.Put(ctx, key, bytes.NewReader(avatar.Data), int64(len(avatar.Data)), avatar.ContentType); err != nil {
		return types.User{}, unexpected("store avatar", err)
	}

	url := s.avatars.URL(key)
	user, err := s.UpdateProfile(ctx, userID, types.UserUpdate{AvatarURL: &url})
	if err != nil {
		if delErr := s.avatars.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned avatar object",
				slog.String("key", key),
				slog.Any("error", delErr),
			)
		}
		return types.User{}, err
	}
	return user, nil
}
