package store

import (
	"context"
	"sync"
	"time"

	"github.com/capoo-pm/apiserver/types"
	"github.com/google/uuid"
)

// MemoryUserRepository keeps users in process memory. It enforces the same
// email uniqueness and partial-update rules as UserRepository.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]types.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]types.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// WithClock replaces the timestamp source. Intended for tests.
func (r *MemoryUserRepository) WithClock(now func() time.Time) *MemoryUserRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, reg types.UserRegistration, passwordHash string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[reg.Email]; exists {
		return types.User{}, ErrConflict
	}

	now := r.now().UTC()
	user := types.User{
		ID:           uuid.New(),
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: passwordHash,
		Role:         types.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id uuid.UUID, update types.UserUpdate) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.AvatarURL != nil {
		avatar := *update.AvatarURL
		user.AvatarURL = &avatar
	}
	user.UpdatedAt = r.now().UTC()
	r.byID[id] = user
	return cloneUser(user), nil
}

// Delete removes a user. Used to simulate accounts vanishing mid-request.
func (r *MemoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	return nil
}

func cloneUser(user types.User) types.User {
	if user.AvatarURL != nil {
		avatar := *user.AvatarURL
		user.AvatarURL = &avatar
	}
	return user
}
