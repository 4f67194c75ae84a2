package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when a write violates the unique constraint on
// email or username. The constraint lives in the database, so two racing
// signups resolve there: one wins, the other sees this error.
var ErrDuplicate = errors.New("duplicate email or username")

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("record not found")

const pqUniqueViolation = "23505"

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, username, email, password_hash, avatar, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ==========================
// Create User
// ==========================

// Create persists a new credential record. passwordHash must already be
// hashed; this layer never sees plaintext secrets.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	id := uuid.NewString()
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id, username, email, passwordHash))
	if err != nil {
		if _, ok := asUniqueViolation(err); ok {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// CreateWithAvatar persists a record created through federated sign-in,
// carrying the provider-supplied profile image.
func (r *UserRepo) CreateWithAvatar(ctx context.Context, username, email, passwordHash, avatar string) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	id := uuid.NewString()
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id, username, email, passwordHash, avatar))
	if err != nil {
		if _, ok := asUniqueViolation(err); ok {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// ==========================
// Get By Email
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

// ==========================
// Update User
// ==========================

// Update applies non-empty fields; empty strings leave the stored value
// untouched. passwordHash, when set, must already be hashed.
func (r *UserRepo) Update(ctx context.Context, id, username, email, passwordHash, avatar string) (*models.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE(NULLIF($1, ''), username),
		    email = COALESCE(NULLIF($2, ''), email),
		    password_hash = COALESCE(NULLIF($3, ''), password_hash),
		    avatar = COALESCE(NULLIF($4, ''), avatar),
		    updated_at = now()
		WHERE id = $5
		RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, username, email, passwordHash, avatar, id))
	if err != nil {
		if _, ok := asUniqueViolation(err); ok {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ==========================
// Count Users
// ==========================
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func asUniqueViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr, true
	}
	return nil, false
}
