package models

import (
	"strings"
	"time"
)

// Child is a registered patient.
type Child struct {
	ID                      string    `db:"id" json:"id"`
	FirstNames              string    `db:"first_names" json:"first_names"`
	LastNames               string    `db:"last_names" json:"last_names"`
	Gender                  string    `db:"gender" json:"gender"`
	BirthDate               time.Time `db:"birth_date" json:"birth_date"`
	ResidenceAddress        string    `db:"residence_address" json:"residence_address"`
	CenterID                *string   `db:"center_id" json:"center_id,omitempty"`
	TutorID                 *string   `db:"tutor_id" json:"tutor_id,omitempty"`
	ActivationCode          string    `db:"activation_code" json:"-"`
	ActivationCodeExpiresAt time.Time `db:"activation_code_expires_at" json:"-"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names.
func (c Child) FullName() string {
	return strings.TrimSpace(c.FirstNames + " " + c.LastNames)
}

// LinkedTo reports whether tutorID is the child's active tutor.
func (c Child) LinkedTo(tutorID string) bool {
	return c.TutorID != nil && tutorID != "" && *c.TutorID == tutorID
}

// ActivationCodeValid reports whether the code can still be redeemed at now.
func (c Child) ActivationCodeValid(now time.Time) bool {
	return c.ActivationCode != "" && now.Before(c.ActivationCodeExpiresAt)
}

// RegisteredChild is returned once at registration and carries the code.
type RegisteredChild struct {
	Child
	ActivationCode          string    `json:"activation_code"`
	ActivationCodeExpiresAt time.Time `json:"activation_code_expires_at"`
}

// ChildDetail is a child joined with its center for tutor listings.
type ChildDetail struct {
	Child
	CenterName *string `db:"center_name" json:"center_name,omitempty"`
}
