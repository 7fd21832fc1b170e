package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const auditEntryColumns = `id, admin_email, action, target, details, created_at`

func scanAuditEntry(row interface{ Scan(dest ...any) error }) (AuditEntry, error) {
	var e AuditEntry
	err := row.Scan(
		&e.ID,
		&e.AdminEmail,
		&e.Action,
		&e.Target,
		&e.Details,
		&e.CreatedAt,
	)
	return e, err
}

const createAuditEntry = `
INSERT INTO audit_log (admin_email, action, target, details)
VALUES ($1, $2, $3, $4)
RETURNING ` + auditEntryColumns

type CreateAuditEntryParams struct {
	AdminEmail string
	Action     string
	Target     string
	Details    pgtype.Text
}

func (q *Queries) CreateAuditEntry(ctx context.Context, arg CreateAuditEntryParams) (AuditEntry, error) {
	return scanAuditEntry(q.db.QueryRow(ctx, createAuditEntry,
		arg.AdminEmail,
		arg.Action,
		arg.Target,
		arg.Details,
	))
}

const listAuditEntries = `
SELECT ` + auditEntryColumns + `
FROM audit_log
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`

type ListAuditEntriesParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListAuditEntries(ctx context.Context, arg ListAuditEntriesParams) ([]AuditEntry, error) {
	rows, err := q.db.Query(ctx, listAuditEntries, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
