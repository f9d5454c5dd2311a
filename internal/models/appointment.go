package models

import "time"

// AppointmentStatus tracks an appointment through attendance.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentAttended  AppointmentStatus = "ATTENDED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a scheduled vaccination for a child at a center.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	ChildID     string            `db:"child_id" json:"child_id"`
	CenterID    string            `db:"center_id" json:"center_id"`
	VaccineID   string            `db:"vaccine_id" json:"vaccine_id"`
	DoseNumber  int               `db:"dose_number" json:"dose_number"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
	DoctorID    *string           `db:"doctor_id" json:"doctor_id,omitempty"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail joins display names for directory listings.
type AppointmentDetail struct {
	Appointment
	ChildName   string  `db:"child_name" json:"child_name"`
	VaccineName string  `db:"vaccine_name" json:"vaccine_name"`
	CenterName  string  `db:"center_name" json:"center_name"`
	DoctorName  *string `db:"doctor_name" json:"doctor_name,omitempty"`
}
