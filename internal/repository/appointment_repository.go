package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

const appointmentDetailSelect = `
SELECT
	a.id,
	a.child_id,
	a.center_id,
	a.vaccine_id,
	a.dose_number,
	a.scheduled_at,
	a.status,
	a.doctor_id,
	a.updated_at,
	TRIM(c.first_names || ' ' || c.last_names) AS child_name,
	v.name AS vaccine_name,
	ce.name AS center_name,
	d.full_name AS doctor_name
FROM appointments a
JOIN children c ON c.id = a.child_id
JOIN vaccines v ON v.id = a.vaccine_id
JOIN centers ce ON ce.id = a.center_id
LEFT JOIN users d ON d.id = a.doctor_id`

// AppointmentFilter scopes directory listings.
type AppointmentFilter struct {
	CenterID string
	DoctorID string
	Status   models.AppointmentStatus
}

// AppointmentRepository reads and transitions appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns appointments matching filter in scheduled order.
func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]models.AppointmentDetail, error) {
	query := strings.Builder{}
	query.WriteString(appointmentDetailSelect)
	query.WriteString("\nWHERE 1=1")

	var args []interface{}
	if filter.CenterID != "" {
		args = append(args, filter.CenterID)
		fmt.Fprintf(&query, " AND a.center_id = $%d", len(args))
	}
	if filter.DoctorID != "" {
		args = append(args, filter.DoctorID)
		fmt.Fprintf(&query, " AND a.doctor_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&query, " AND a.status = $%d", len(args))
	}
	query.WriteString("\nORDER BY a.scheduled_at ASC, a.id ASC")

	var items []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

// ListByChild returns every appointment of a child.
func (r *AppointmentRepository) ListByChild(ctx context.Context, childID string) ([]models.AppointmentDetail, error) {
	query := appointmentDetailSelect + `
WHERE a.child_id = $1
ORDER BY a.scheduled_at ASC, a.id ASC`

	var items []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &items, query, childID); err != nil {
		return nil, fmt.Errorf("list child appointments: %w", err)
	}
	return items, nil
}

// LockByID loads an appointment holding its row lock.
func (r *AppointmentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Appointment, error) {
	const query = `
SELECT id, child_id, center_id, vaccine_id, dose_number, scheduled_at, status, doctor_id, updated_at
FROM appointments
WHERE id = $1
FOR UPDATE`

	var appt models.Appointment
	if err := sqlx.GetContext(ctx, exec, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock appointment: %w", err)
	}
	return &appt, nil
}

// UpdateStatus moves an appointment from one status to another. It fails
// when the stored status no longer matches from.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.AppointmentStatus, now time.Time) error {
	const query = `UPDATE appointments SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := exec.ExecContext(ctx, query, id, from, to, now)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment status rows: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("update appointment status: appointment %s is not %s", id, from)
	}
	return nil
}
