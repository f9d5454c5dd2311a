package models

import "time"

// CatalogDose is one dose of a vaccine and its age offset in days.
type CatalogDose struct {
	DoseNumber int    `db:"dose_number" json:"dose_number"`
	OffsetDays int    `db:"offset_days" json:"offset_days"`
	Label      string `db:"label" json:"label,omitempty"`
}

// CatalogVaccine is a read-only vaccine definition.
type CatalogVaccine struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	Manufacturer string        `db:"manufacturer" json:"manufacturer"`
	Doses        []CatalogDose `db:"-" json:"doses"`
}

// VaccineLot is a batch of doses held by a center.
type VaccineLot struct {
	ID                string    `db:"id" json:"id"`
	VaccineID         string    `db:"vaccine_id" json:"vaccine_id"`
	CenterID          string    `db:"center_id" json:"center_id"`
	LotNumber         string    `db:"lot_number" json:"lot_number"`
	ExpiryDate        time.Time `db:"expiry_date" json:"expiry_date"`
	QuantityAvailable int       `db:"quantity_available" json:"quantity_available"`
	VaccineName       string    `db:"vaccine_name" json:"vaccine_name,omitempty"`
	Manufacturer      string    `db:"manufacturer" json:"manufacturer,omitempty"`
}

// Expired reports whether the lot can no longer be used at now.
func (l VaccineLot) Expired(now time.Time) bool {
	return !l.ExpiryDate.After(now)
}

// Eligible reports whether the lot can be allocated at now.
func (l VaccineLot) Eligible(now time.Time) bool {
	return l.QuantityAvailable > 0 && !l.Expired(now)
}
