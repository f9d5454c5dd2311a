package models

import "time"

const (
	AuditActionChildRegister  = "CHILD_REGISTER"
	AuditActionChildDelete    = "CHILD_DELETE"
	AuditActionLinkRequest    = "LINK_REQUEST"
	AuditActionLinkRespond    = "LINK_RESPOND"
	AuditActionAttend         = "APPOINTMENT_ATTEND"
	AuditActionHistoryCreate  = "HISTORY_CREATE"
	AuditActionCatalogRefresh = "CATALOG_REFRESH"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
