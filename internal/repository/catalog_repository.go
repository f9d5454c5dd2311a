package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

// CatalogRepository reads the vaccine catalog. The catalog is maintained
// outside this service and treated as read-only.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type catalogDoseRow struct {
	VaccineID string `db:"vaccine_id"`
	models.CatalogDose
}

// ListVaccines returns every vaccine with its doses ordered by dose number.
func (r *CatalogRepository) ListVaccines(ctx context.Context) ([]models.CatalogVaccine, error) {
	var vaccines []models.CatalogVaccine
	if err := r.db.SelectContext(ctx, &vaccines, `SELECT id, name, manufacturer FROM vaccines ORDER BY name ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}
	if len(vaccines) == 0 {
		return vaccines, nil
	}

	var doses []catalogDoseRow
	const dosesQuery = `
SELECT vaccine_id, dose_number, offset_days, label
FROM vaccine_doses
ORDER BY vaccine_id ASC, dose_number ASC`
	if err := r.db.SelectContext(ctx, &doses, dosesQuery); err != nil {
		return nil, fmt.Errorf("list vaccine doses: %w", err)
	}

	index := make(map[string]int, len(vaccines))
	for i := range vaccines {
		index[vaccines[i].ID] = i
		vaccines[i].Doses = []models.CatalogDose{}
	}
	for _, dose := range doses {
		if i, ok := index[dose.VaccineID]; ok {
			vaccines[i].Doses = append(vaccines[i].Doses, dose.CatalogDose)
		}
	}
	return vaccines, nil
}
