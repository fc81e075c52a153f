package repo

import (
	"context"
	"fmt"

	dom "github.com/Roroshi7/TaskManager/internal/domain"
	"github.com/Roroshi7/TaskManager/internal/store"

	"github.com/gofrs/uuid"
)

// UserRepo provides user persistence.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (dom.User, error)
	Create(ctx context.Context, username, passwordHash string) (dom.User, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	store *store.Manager
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(m *store.Manager) *PGUserRepo {
	return &PGUserRepo{store: m}
}

// GetByUsername returns the user by username.
func (r *PGUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return dom.User{}, err
	}
	var u dom.User
	err = db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Create inserts a new user and returns it.
func (r *PGUserRepo) Create(ctx context.Context, username, passwordHash string) (dom.User, error) {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return dom.User{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return dom.User{}, fmt.Errorf("new user id: %w", err)
	}
	query := `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, created_at`
	var u dom.User
	err = db.QueryRow(ctx, query, id, username, passwordHash).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)
	return u, err
}
