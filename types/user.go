package types

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRole is assigned to every newly registered user.
const DefaultRole = "user"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user. It never changes.
	ID uuid.UUID `json:"id" db:"id"`

	// Email is the user's unique login address, immutable after creation.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role indicates the user's authorization level. It is carried in access
	// tokens but no endpoint checks it yet.
	Role string `json:"role" db:"role"`

	// IsVerified reports whether the email address has been confirmed.
	IsVerified bool `json:"isVerified" db:"is_verified"`

	// AvatarURL points at the user's avatar image, if any.
	AvatarURL *string `json:"avatarUrl" db:"avatar_url"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is refreshed on every mutation of the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserRegistration carries the fields accepted when creating an account.
type UserRegistration struct {
	Email    string
	Name     string
	Password string
}

// UserUpdate is a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	Name      *string
	AvatarURL *string
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}
