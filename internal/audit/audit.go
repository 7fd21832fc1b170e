// Package audit records who changed what. Every staff/admin mutation is
// appended to the audit_log table and emitted as a structured log line, so
// the trail survives both in the database and in log aggregation.
package audit

import (
	"context"

	"github.com/campus-canteen/api/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

// Store defines the DB method needed to persist audit entries.
// Satisfied by *database.Queries.
type Store interface {
	CreateAuditEntry(ctx context.Context, arg database.CreateAuditEntryParams) (database.AuditEntry, error)
}

// Recorder writes audit entries. A failed write is logged but never fails
// the mutation it describes; the mutation has already committed.
type Recorder struct {
	store Store
	log   *logrus.Logger
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(store Store) *Recorder {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	return &Recorder{store: store, log: log}
}

// Record appends one audit entry: actor email, the action taken, the entity
// it targeted, and a human-readable detail string (old/new values).
func (r *Recorder) Record(ctx context.Context, actorEmail, action, target, details string) {
	entry := r.log.WithFields(logrus.Fields{
		"actor":  actorEmail,
		"action": action,
		"target": target,
	})

	var d pgtype.Text
	if details != "" {
		d = pgtype.Text{String: details, Valid: true}
		entry = entry.WithField("details", details)
	}

	if _, err := r.store.CreateAuditEntry(ctx, database.CreateAuditEntryParams{
		AdminEmail: actorEmail,
		Action:     action,
		Target:     target,
		Details:    d,
	}); err != nil {
		entry.WithError(err).Error("audit entry not persisted")
		return
	}

	entry.Info("audit")
}
