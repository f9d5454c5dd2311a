package dto

// PatientHistoryRequest asks for the complete history of a patient account.
type PatientHistoryRequest struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	ChildID string `json:"childId" validate:"omitempty,uuid"`
}

// CreatePatientHistoryRequest opens a medical history header.
type CreatePatientHistoryRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	ChildID   string `json:"childId" validate:"omitempty,uuid"`
	BirthDate string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Allergies string `json:"allergies" validate:"max=1000"`
	Notes     string `json:"notes" validate:"max=2000"`
}
