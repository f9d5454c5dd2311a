package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

const historySelect = `
SELECT
	r.id,
	r.appointment_id,
	r.child_id,
	r.vaccine_id,
	r.lot_id,
	r.dose_number,
	r.personnel_id,
	r.personnel_name,
	r.dose_label,
	r.age_at_administration,
	r.notes,
	r.allergies,
	r.administered_at,
	v.name AS vaccine_name,
	l.lot_number
FROM vaccination_records r
JOIN vaccines v ON v.id = r.vaccine_id
JOIN vaccine_lots l ON l.id = r.lot_id`

// VaccinationRepository stores administered doses. Records are insert-only.
type VaccinationRepository struct {
	db *sqlx.DB
}

// NewVaccinationRepository constructs the repository.
func NewVaccinationRepository(db *sqlx.DB) *VaccinationRepository {
	return &VaccinationRepository{db: db}
}

// Insert writes a record inside the caller's transaction.
func (r *VaccinationRepository) Insert(ctx context.Context, exec sqlx.ExtContext, record *models.VaccinationRecord) error {
	const query = `
INSERT INTO vaccination_records (
	id, appointment_id, child_id, vaccine_id, lot_id, dose_number,
	personnel_id, personnel_name, dose_label, age_at_administration,
	notes, allergies, administered_at
) VALUES (
	:id, :appointment_id, :child_id, :vaccine_id, :lot_id, :dose_number,
	:personnel_id, :personnel_name, :dose_label, :age_at_administration,
	:notes, :allergies, :administered_at
)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, record); err != nil {
		return fmt.Errorf("insert vaccination record: %w", err)
	}
	return nil
}

// ListByChild returns a child's history oldest first.
func (r *VaccinationRepository) ListByChild(ctx context.Context, childID string) ([]models.VaccinationHistoryEntry, error) {
	query := historySelect + `
WHERE r.child_id = $1
ORDER BY r.administered_at ASC, r.id ASC`

	var entries []models.VaccinationHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, childID); err != nil {
		return nil, fmt.Errorf("list vaccination history: %w", err)
	}
	return entries, nil
}

// ListByTutorUser returns the history of every child linked to the user's tutor profile.
func (r *VaccinationRepository) ListByTutorUser(ctx context.Context, userID string) ([]models.VaccinationHistoryEntry, error) {
	query := historySelect + `
JOIN children c ON c.id = r.child_id
JOIN tutors t ON t.id = c.tutor_id
WHERE t.user_id = $1
ORDER BY r.administered_at ASC, r.id ASC`

	var entries []models.VaccinationHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list tutor vaccination history: %w", err)
	}
	return entries, nil
}

// AdministeredByChild returns the (vaccine, dose) pairs already given.
func (r *VaccinationRepository) AdministeredByChild(ctx context.Context, childID string) ([]models.AdministeredDose, error) {
	const query = `
SELECT vaccine_id, dose_number, administered_at
FROM vaccination_records
WHERE child_id = $1
ORDER BY administered_at ASC`

	var doses []models.AdministeredDose
	if err := r.db.SelectContext(ctx, &doses, query, childID); err != nil {
		return nil, fmt.Errorf("list administered doses: %w", err)
	}
	return doses, nil
}

// CountByChild reports how many records reference the child.
func (r *VaccinationRepository) CountByChild(ctx context.Context, exec sqlx.ExtContext, childID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, `SELECT COUNT(1) FROM vaccination_records WHERE child_id = $1`, childID); err != nil {
		return 0, fmt.Errorf("count vaccination records: %w", err)
	}
	return count, nil
}
