package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

// UserRepository reads user accounts and tutor profiles. Accounts are
// managed by the auth gate; this service only resolves them.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns an active user or nil.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `
SELECT id, email, full_name, role, center_id, active, created_at
FROM users
WHERE id = $1 AND active = TRUE`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// FindTutorByUserID returns the tutor profile of a user or nil.
func (r *UserRepository) FindTutorByUserID(ctx context.Context, userID string) (*models.Tutor, error) {
	const query = `SELECT id, user_id, created_at FROM tutors WHERE user_id = $1`

	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	return &tutor, nil
}
