package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/capoo-pm/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const userColumns = `id, email, name, password_hash, role, is_verified, avatar_url, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user      types.User
		avatarURL sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.IsVerified,
		&avatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if avatarURL.Valid {
		user.AvatarURL = &avatarURL.String
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Create inserts a new user. The unique index on email is the authority on
// duplicates: a violation is reported as ErrConflict.
func (r *UserRepository) Create(ctx context.Context, reg types.UserRegistration, passwordHash string) (types.User, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	user := types.User{
		ID:           uuid.New(),
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: passwordHash,
		Role:         types.DefaultRole,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	const query = `
		INSERT INTO users (id, email, name, password_hash, role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrConflict
		}
		return types.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Update applies the non-nil fields of update and refreshes updated_at.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, update types.UserUpdate) (types.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = $4
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(
		ctx,
		query,
		id,
		nullableString(update.Name),
		nullableString(update.AvatarURL),
		r.now().UTC().Truncate(time.Microsecond),
	)
	return scanUser(row)
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
