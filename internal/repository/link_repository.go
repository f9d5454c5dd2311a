package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

// PendingLinkConstraint is the partial unique index guarding one pending
// request per tutor and child.
const PendingLinkConstraint = "uq_link_requests_pending"

const linkDetailSelect = `
SELECT
	lr.id,
	lr.tutor_id,
	lr.child_id,
	lr.activation_code,
	lr.message,
	lr.status,
	lr.created_at,
	lr.resolved_at,
	lr.resolved_by,
	TRIM(c.first_names || ' ' || c.last_names) AS child_name,
	u.full_name AS tutor_name
FROM link_requests lr
JOIN children c ON c.id = lr.child_id
JOIN tutors t ON t.id = lr.tutor_id
JOIN users u ON u.id = t.user_id`

// LinkRepository persists tutor link requests.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository constructs the repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// LockPair serialises work on one (tutor, child) pair until the transaction ends.
func (r *LinkRepository) LockPair(ctx context.Context, exec sqlx.ExtContext, tutorID, childID string) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`, tutorID, childID); err != nil {
		return fmt.Errorf("lock link pair: %w", err)
	}
	return nil
}

// HasPending reports whether the pair already has a pending request.
func (r *LinkRepository) HasPending(ctx context.Context, exec sqlx.ExtContext, tutorID, childID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM link_requests
	WHERE tutor_id = $1 AND child_id = $2 AND status = 'PENDING'
)`
	var exists bool
	if err := sqlx.GetContext(ctx, exec, &exists, query, tutorID, childID); err != nil {
		return false, fmt.Errorf("check pending link: %w", err)
	}
	return exists, nil
}

// Create inserts a request.
func (r *LinkRepository) Create(ctx context.Context, exec sqlx.ExtContext, req *models.LinkRequest) error {
	const query = `
INSERT INTO link_requests (id, tutor_id, child_id, activation_code, message, status, created_at)
VALUES (:id, :tutor_id, :child_id, :activation_code, :message, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, req); err != nil {
		return fmt.Errorf("insert link request: %w", err)
	}
	return nil
}

// LockByID loads a request holding its row lock.
func (r *LinkRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.LinkRequest, error) {
	const query = `
SELECT id, tutor_id, child_id, activation_code, message, status, created_at, resolved_at, resolved_by
FROM link_requests
WHERE id = $1
FOR UPDATE`

	var req models.LinkRequest
	if err := sqlx.GetContext(ctx, exec, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock link request: %w", err)
	}
	return &req, nil
}

// Resolve moves a pending request to its terminal status.
func (r *LinkRepository) Resolve(ctx context.Context, exec sqlx.ExtContext, id string, status models.LinkStatus, resolvedBy string, now time.Time) error {
	const query = `
UPDATE link_requests
SET status = $2, resolved_at = $3, resolved_by = $4
WHERE id = $1 AND status = 'PENDING'`
	res, err := exec.ExecContext(ctx, query, id, status, now, resolvedBy)
	if err != nil {
		return fmt.Errorf("resolve link request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve link request rows: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("resolve link request: %s is no longer pending", id)
	}
	return nil
}

// ListPendingForTutor returns pending requests on children whose active tutor is tutorID.
func (r *LinkRepository) ListPendingForTutor(ctx context.Context, tutorID string) ([]models.LinkRequestDetail, error) {
	query := linkDetailSelect + `
WHERE lr.status = 'PENDING' AND c.tutor_id = $1
ORDER BY lr.created_at ASC, lr.id ASC`

	var items []models.LinkRequestDetail
	if err := r.db.SelectContext(ctx, &items, query, tutorID); err != nil {
		return nil, fmt.Errorf("list pending link requests: %w", err)
	}
	return items, nil
}

// ListPending returns every pending request.
func (r *LinkRepository) ListPending(ctx context.Context) ([]models.LinkRequestDetail, error) {
	query := linkDetailSelect + `
WHERE lr.status = 'PENDING'
ORDER BY lr.created_at ASC, lr.id ASC`

	var items []models.LinkRequestDetail
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list pending link requests: %w", err)
	}
	return items, nil
}
