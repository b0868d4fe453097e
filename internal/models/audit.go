package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionCreate              = "CREATE"
	AuditActionUpdate              = "UPDATE"
	AuditActionDelete              = "DELETE"
	AuditActionEnroll              = "ENROLL"
	AuditActionStatusChange        = "STATUS_CHANGE"
	AuditActionGradeSet            = "GRADE_SET"
	AuditActionAssignPrerequisites = "ASSIGN_PREREQUISITES"
)

// AuditEntry represents an audit trail record for a mutation.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID int64     `json:"resource_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
