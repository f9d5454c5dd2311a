package models

import (
	"strings"
	"time"
)

// LinkStatus is the lifecycle state of a link request.
type LinkStatus string

const (
	LinkStatusPending  LinkStatus = "PENDING"
	LinkStatusAccepted LinkStatus = "ACCEPTED"
	LinkStatusRejected LinkStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s LinkStatus) Terminal() bool {
	return s == LinkStatusAccepted || s == LinkStatusRejected
}

// LinkAction is a response to a pending request.
type LinkAction string

const (
	LinkActionAccept LinkAction = "ACCEPT"
	LinkActionReject LinkAction = "REJECT"
)

// ParseLinkAction accepts both the English and the Spanish verbs used by
// existing clients.
func ParseLinkAction(raw string) (LinkAction, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACCEPT", "ACEPTAR":
		return LinkActionAccept, true
	case "REJECT", "RECHAZAR":
		return LinkActionReject, true
	default:
		return "", false
	}
}

// Outcome is the status a request moves to for the action.
func (a LinkAction) Outcome() LinkStatus {
	if a == LinkActionAccept {
		return LinkStatusAccepted
	}
	return LinkStatusRejected
}

// LinkRequest is a tutor's request to become a child's tutor.
type LinkRequest struct {
	ID             string     `db:"id" json:"id"`
	TutorID        string     `db:"tutor_id" json:"tutor_id"`
	ChildID        string     `db:"child_id" json:"child_id"`
	ActivationCode string     `db:"activation_code" json:"-"`
	Message        *string    `db:"message" json:"message,omitempty"`
	Status         LinkStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy     *string    `db:"resolved_by" json:"resolved_by,omitempty"`
}

// LinkRequestDetail adds display names for inbox listings.
type LinkRequestDetail struct {
	LinkRequest
	ChildName string `db:"child_name" json:"child_name"`
	TutorName string `db:"tutor_name" json:"tutor_name"`
}
