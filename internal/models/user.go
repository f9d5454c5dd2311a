package models

import (
	"strings"
	"time"
)

// Role is the identity category asserted by the auth gate.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RoleNurse   Role = "NURSE"
	RoleTutor   Role = "TUTOR"
	RoleManager Role = "MANAGER"
)

// ParseRole converts a claim value into a Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleTutor, RoleManager:
		return role, true
	default:
		return "", false
	}
}

// CanAdminister reports whether the role may record administered doses.
func (r Role) CanAdminister() bool {
	switch r {
	case RoleDoctor, RoleNurse, RoleManager:
		return true
	default:
		return false
	}
}

// ReadsAnyChild reports whether the role sees children without a tutor link.
func (r Role) ReadsAnyChild() bool {
	return r != RoleTutor && r != ""
}

// MedicalStaff lists roles that work inside a center.
func MedicalStaff() []Role {
	return []Role{RoleDoctor, RoleNurse, RoleManager}
}

// User is an account stored in the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      Role      `db:"role" json:"role"`
	CenterID  *string   `db:"center_id" json:"center_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Tutor links a user account to the children it may be responsible for.
type Tutor struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
