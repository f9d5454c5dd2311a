package models

import "time"

// VaccinationRecord is the immutable trace of an administered dose.
type VaccinationRecord struct {
	ID                  string    `db:"id" json:"id"`
	AppointmentID       string    `db:"appointment_id" json:"appointment_id"`
	ChildID             string    `db:"child_id" json:"child_id"`
	VaccineID           string    `db:"vaccine_id" json:"vaccine_id"`
	LotID               string    `db:"lot_id" json:"lot_id"`
	DoseNumber          int       `db:"dose_number" json:"dose_number"`
	PersonnelID         string    `db:"personnel_id" json:"personnel_id"`
	PersonnelName       string    `db:"personnel_name" json:"personnel_name"`
	DoseLabel           string    `db:"dose_label" json:"dose_label"`
	AgeAtAdministration string    `db:"age_at_administration" json:"age_at_administration"`
	Notes               string    `db:"notes" json:"notes,omitempty"`
	Allergies           string    `db:"allergies" json:"allergies,omitempty"`
	AdministeredAt      time.Time `db:"administered_at" json:"administered_at"`
}

// VaccinationHistoryEntry is a record joined with vaccine and lot names.
type VaccinationHistoryEntry struct {
	VaccinationRecord
	VaccineName string `db:"vaccine_name" json:"vaccine_name"`
	LotNumber   string `db:"lot_number" json:"lot_number"`
}

// AdministeredDose is the minimal input the schedule needs.
type AdministeredDose struct {
	VaccineID      string    `db:"vaccine_id" json:"vaccine_id"`
	DoseNumber     int       `db:"dose_number" json:"dose_number"`
	AdministeredAt time.Time `db:"administered_at" json:"administered_at"`
}
