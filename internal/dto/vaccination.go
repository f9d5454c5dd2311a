package dto

// AttendAppointmentRequest is the payload recorded when a dose is administered.
type AttendAppointmentRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required,uuid"`
	LotID         string `json:"lotId" validate:"required,uuid"`
	DoseNumber    int    `json:"doseNumber" validate:"required,min=1,max=20"`
	Notes         string `json:"notes" validate:"max=2000"`
	Allergies     string `json:"allergies" validate:"max=1000"`
}

// AppointmentQuery narrows the confirmed appointment directory.
type AppointmentQuery struct {
	CenterID string `form:"id_centro"`
}

// VaccinationCardQuery selects the export encoding.
type VaccinationCardQuery struct {
	Format string `form:"format"`
}
