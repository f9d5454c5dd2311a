package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

// MedicalHistoryRepository persists medical history headers.
type MedicalHistoryRepository struct {
	db *sqlx.DB
}

// NewMedicalHistoryRepository constructs the repository.
func NewMedicalHistoryRepository(db *sqlx.DB) *MedicalHistoryRepository {
	return &MedicalHistoryRepository{db: db}
}

// Create inserts a header.
func (r *MedicalHistoryRepository) Create(ctx context.Context, history *models.MedicalHistory) error {
	const query = `
INSERT INTO medical_histories (id, user_id, child_id, birth_date, allergies, notes, created_at)
VALUES (:id, :user_id, :child_id, :birth_date, :allergies, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, history); err != nil {
		return fmt.Errorf("insert medical history: %w", err)
	}
	return nil
}

// Latest returns the newest header for the user, narrowed to a child when
// childID is set.
func (r *MedicalHistoryRepository) Latest(ctx context.Context, userID, childID string) (*models.MedicalHistory, error) {
	query := `
SELECT id, user_id, child_id, birth_date, allergies, notes, created_at
FROM medical_histories
WHERE user_id = $1`
	args := []interface{}{userID}
	if childID != "" {
		args = append(args, childID)
		query += " AND child_id = $2"
	}
	query += "\nORDER BY created_at DESC, id DESC\nLIMIT 1"

	var history models.MedicalHistory
	if err := r.db.GetContext(ctx, &history, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get medical history: %w", err)
	}
	return &history, nil
}
