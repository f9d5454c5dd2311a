package models

import "time"

// MedicalHistory is the clinical header kept for a patient account.
type MedicalHistory struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ChildID   *string   `db:"child_id" json:"child_id,omitempty"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	Allergies string    `db:"allergies" json:"allergies"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PatientFullHistory combines the medical header with administered doses.
type PatientFullHistory struct {
	MedicalHistory     *MedicalHistory           `json:"medical_history"`
	VaccinationHistory []VaccinationHistoryEntry `json:"vaccination_history"`
}
