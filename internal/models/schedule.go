package models

import "time"

// ScheduleStatus classifies a catalog dose for one child.
type ScheduleStatus string

const (
	ScheduleUpcoming  ScheduleStatus = "UPCOMING"
	ScheduleDue       ScheduleStatus = "DUE"
	ScheduleOverdue   ScheduleStatus = "OVERDUE"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
)

// ScheduleEntry is one row of a child's computed schedule.
type ScheduleEntry struct {
	VaccineID      string         `json:"vaccine_id"`
	VaccineName    string         `json:"vaccine_name"`
	DoseNumber     int            `json:"dose_number"`
	DoseLabel      string         `json:"dose_label"`
	DueDate        time.Time      `json:"due_date"`
	Status         ScheduleStatus `json:"status"`
	AdministeredAt *time.Time     `json:"administered_at,omitempty"`
}
