package dto

// RegisterChildRequest defines the payload for registering a child.
type RegisterChildRequest struct {
	FirstNames       string `json:"firstNames" validate:"required,max=100"`
	LastNames        string `json:"lastNames" validate:"required,max=100"`
	Gender           string `json:"gender" validate:"required,oneof=M F"`
	BirthDate        string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	ResidenceAddress string `json:"residenceAddress" validate:"max=200"`
	CenterID         string `json:"centerId" validate:"omitempty,uuid"`
}

// RequestLinkRequest is submitted by a tutor holding an activation code.
type RequestLinkRequest struct {
	ActivationCode string `json:"activationCode" validate:"required,min=6,max=32"`
	Message        string `json:"message" validate:"max=500"`
}

// RespondLinkRequest resolves a pending request.
type RespondLinkRequest struct {
	Action string `json:"action" validate:"required"`
}

// LinkResolution is returned after a request is resolved.
type LinkResolution struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}
