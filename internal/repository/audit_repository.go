package repository

import (
	"context"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
)

// AuditRepo appends moderation records to audit_log.
type AuditRepo struct{ db DBTX }

func NewAuditRepo(db DBTX) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Insert(ctx context.Context, e model.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO audit_log (admin_id, action_type, table_name, record_id, details, `timestamp`) VALUES (?,?,?,?,?,?)",
		e.AdminID, e.ActionType, e.TableName, e.RecordID, e.Details, time.Now().UTC().Truncate(time.Second))
	return err
}

// Recent returns the newest audit entries first.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT log_id, admin_id, action_type, table_name, record_id, details, `timestamp` FROM audit_log ORDER BY log_id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.ActionType, &e.TableName, &e.RecordID, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
