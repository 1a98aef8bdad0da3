package driven

import (
	"context"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
)

// AuditLogStore defines the driven port for the append-only audit trail.
// Entries are immutable; the port exposes no update or delete.
type AuditLogStore interface {
	Append(ctx context.Context, entry model.AuditLogEntry) error
	// ListByCredential returns the trail for one credential, newest first.
	ListByCredential(ctx context.Context, credentialID string) ([]model.AuditLogEntry, error)
	ListAll(ctx context.Context) ([]model.AuditLogEntry, error)
}
