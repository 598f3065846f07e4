package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/capoo-pm/apiserver/config"
	"github.com/google/uuid"
)

const avatarPrefix = "avatars"

// ErrNotImage is returned by Put for objects that are not images.
var ErrNotImage = errors.New("avatar content type must be an image")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// AvatarKey returns a fresh object key for an avatar of userID.
func AvatarKey(userID uuid.UUID, ext string) string {
	return path.Join(avatarPrefix, userID.String(), uuid.NewString()+ext)
}

// Storage wraps an ObjectStorage backend and knows how stored objects are
// addressed publicly.
type Storage struct {
	backend       ObjectStorage
	publicBaseURL string
}

// NewStorage constructs a Storage wrapper for the provided backend. Object
// URLs are built as publicBaseURL + "/" + key.
func NewStorage(backend ObjectStorage, publicBaseURL string) *Storage {
	return &Storage{
		backend:       backend,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Open builds the backend selected by cfg and ensures its bucket exists.
// It returns a nil Storage when object storage is disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case config.StorageBackendNone:
		return nil, nil
	case config.StorageBackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageBackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		return nil, errors.New("STORAGE_PUBLIC_BASE_URL is required when object storage is enabled")
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend, cfg.PublicBaseURL), nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an avatar image to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %q", ErrNotImage, contentType)
	}
	if !strings.HasPrefix(key, avatarPrefix+"/") {
		return fmt.Errorf("avatar key %q outside %s/", key, avatarPrefix)
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// URL returns the public address of the object stored under key.
func (s *Storage) URL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}
