package model

import "time"

// AuditEntry records a moderation action taken by an admin.
type AuditEntry struct {
    ID         uint64    `json:"log_id"`      // audit_log.log_id
    AdminID    uint64    `json:"admin_id"`    // audit_log.admin_id
    ActionType string    `json:"action_type"` // audit_log.action_type, e.g. "delete"
    TableName  string    `json:"table_name"`  // audit_log.table_name
    RecordID   uint64    `json:"record_id"`   // audit_log.record_id
    Details    string    `json:"details"`     // audit_log.details
    Timestamp  time.Time `json:"timestamp"`   // audit_log.timestamp
}
