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

const lotColumns = `
	l.id,
	l.vaccine_id,
	l.center_id,
	l.lot_number,
	l.expiry_date,
	l.quantity_available,
	v.name AS vaccine_name,
	v.manufacturer`

// LotRepository persists vaccine lot inventory.
type LotRepository struct {
	db *sqlx.DB
}

// NewLotRepository constructs the repository.
func NewLotRepository(db *sqlx.DB) *LotRepository {
	return &LotRepository{db: db}
}

// ListAvailable returns lots with stock that expire after now, earliest expiry first.
func (r *LotRepository) ListAvailable(ctx context.Context, vaccineID, centerID string, now time.Time) ([]models.VaccineLot, error) {
	query := `
SELECT` + lotColumns + `
FROM vaccine_lots l
JOIN vaccines v ON v.id = l.vaccine_id
WHERE l.vaccine_id = $1
	AND l.center_id = $2
	AND l.quantity_available > 0
	AND l.expiry_date > $3
ORDER BY l.expiry_date ASC, l.id ASC`

	var lots []models.VaccineLot
	if err := r.db.SelectContext(ctx, &lots, query, vaccineID, centerID, now); err != nil {
		return nil, fmt.Errorf("list available lots: %w", err)
	}
	return lots, nil
}

// LockByID loads a lot and holds its row lock until the transaction ends.
func (r *LotRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, lotID string) (*models.VaccineLot, error) {
	query := `
SELECT` + lotColumns + `
FROM vaccine_lots l
JOIN vaccines v ON v.id = l.vaccine_id
WHERE l.id = $1
FOR UPDATE OF l`

	var lot models.VaccineLot
	if err := sqlx.GetContext(ctx, exec, &lot, query, lotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock lot: %w", err)
	}
	return &lot, nil
}

// Decrement subtracts quantity when enough stock remains and returns the new
// quantity. ok is false when the guard rejected the update.
func (r *LotRepository) Decrement(ctx context.Context, exec sqlx.ExtContext, lotID string, quantity int) (remaining int, ok bool, err error) {
	const query = `
UPDATE vaccine_lots
SET quantity_available = quantity_available - $2
WHERE id = $1 AND quantity_available >= $2
RETURNING quantity_available`

	if err := sqlx.GetContext(ctx, exec, &remaining, query, lotID, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("decrement lot: %w", err)
	}
	return remaining, true, nil
}
