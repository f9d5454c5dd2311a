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

const childColumns = `
	id,
	first_names,
	last_names,
	gender,
	birth_date,
	residence_address,
	center_id,
	tutor_id,
	activation_code,
	activation_code_expires_at,
	created_at,
	updated_at`

// ChildRepository persists children and their active tutor association.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// Create inserts a new child.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) error {
	const query = `
INSERT INTO children (` + childColumns + `
) VALUES (
	:id, :first_names, :last_names, :gender, :birth_date, :residence_address,
	:center_id, :tutor_id, :activation_code, :activation_code_expires_at,
	:created_at, :updated_at
)`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		return fmt.Errorf("insert child: %w", err)
	}
	return nil
}

// FindByID returns the child or nil when absent.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	return r.get(ctx, r.db, `SELECT`+childColumns+` FROM children WHERE id = $1`, id)
}

// FindByIDTx is FindByID inside the caller's transaction.
func (r *ChildRepository) FindByIDTx(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error) {
	return r.get(ctx, exec, `SELECT`+childColumns+` FROM children WHERE id = $1`, id)
}

// LockByID returns the child holding its row lock.
func (r *ChildRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error) {
	return r.get(ctx, exec, `SELECT`+childColumns+` FROM children WHERE id = $1 FOR UPDATE`, id)
}

// FindByActivationCode resolves a code to its child.
func (r *ChildRepository) FindByActivationCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Child, error) {
	return r.get(ctx, exec, `SELECT`+childColumns+` FROM children WHERE activation_code = $1`, code)
}

func (r *ChildRepository) get(ctx context.Context, exec sqlx.ExtContext, query string, args ...interface{}) (*models.Child, error) {
	var child models.Child
	if err := sqlx.GetContext(ctx, exec, &child, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get child: %w", err)
	}
	return &child, nil
}

// ListByTutor returns the children linked to tutorID with their center name.
func (r *ChildRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.ChildDetail, error) {
	const query = `
SELECT
	c.id, c.first_names, c.last_names, c.gender, c.birth_date,
	c.residence_address, c.center_id, c.tutor_id, c.activation_code,
	c.activation_code_expires_at, c.created_at, c.updated_at,
	ce.name AS center_name
FROM children c
LEFT JOIN centers ce ON ce.id = c.center_id
WHERE c.tutor_id = $1
ORDER BY c.birth_date DESC, c.id`
	items := []models.ChildDetail{}
	if err := r.db.SelectContext(ctx, &items, query, tutorID); err != nil {
		return nil, fmt.Errorf("list children by tutor: %w", err)
	}
	return items, nil
}

// SetTutor replaces the child's active tutor.
func (r *ChildRepository) SetTutor(ctx context.Context, exec sqlx.ExtContext, childID, tutorID string, now time.Time) error {
	const query = `UPDATE children SET tutor_id = $2, updated_at = $3 WHERE id = $1`
	res, err := exec.ExecContext(ctx, query, childID, tutorID, now)
	if err != nil {
		return fmt.Errorf("set child tutor: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set child tutor: child %s not found", childID)
	}
	return nil
}

// Delete removes a child together with its pending link requests and
// unattended appointments. Resolved requests go with the child row through
// the foreign key cascade. Callers must ensure no vaccination record exists.
func (r *ChildRepository) Delete(ctx context.Context, exec sqlx.ExtContext, childID string) error {
	statements := []string{
		`DELETE FROM link_requests WHERE child_id = $1 AND status = 'PENDING'`,
		`DELETE FROM appointments WHERE child_id = $1 AND status <> 'ATTENDED'`,
		`UPDATE medical_histories SET child_id = NULL WHERE child_id = $1`,
		`DELETE FROM children WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := exec.ExecContext(ctx, stmt, childID); err != nil {
			return fmt.Errorf("delete child: %w", err)
		}
	}
	return nil
}
