package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditLogStore = (*AuditLogRepo)(nil)

// AuditLogRepo is the SQLite implementation of the AuditLogStore port
// interface. The table is append-only; this repo issues no UPDATE or DELETE.
type AuditLogRepo struct {
	db *DB
}

// NewAuditLogRepo creates a new AuditLogRepo backed by the given DB.
func NewAuditLogRepo(db *DB) *AuditLogRepo {
	return &AuditLogRepo{db: db}
}

// Append inserts a new audit entry. Metadata is serialized as a JSON object
// in the TEXT column; a nil map is stored as {}.
func (r *AuditLogRepo) Append(ctx context.Context, entry model.AuditLogEntry) error {
	const query = `
		INSERT INTO audit_logs (id, credential_id, action, actor_address, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		entry.ID, entry.CredentialID, string(entry.Action), entry.ActorAddress,
		string(metadataJSON), entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append audit entry for credential %s: %w", entry.CredentialID, err)
	}

	return nil
}

// ListByCredential returns the audit trail for one credential, newest first.
func (r *AuditLogRepo) ListByCredential(ctx context.Context, credentialID string) ([]model.AuditLogEntry, error) {
	const query = `
		SELECT id, credential_id, action, actor_address, metadata, created_at
		FROM audit_logs
		WHERE credential_id = ?
		ORDER BY created_at DESC, id DESC
	`

	return r.queryEntries(ctx, query, credentialID)
}

// ListAll returns every audit entry, newest first.
func (r *AuditLogRepo) ListAll(ctx context.Context) ([]model.AuditLogEntry, error) {
	const query = `
		SELECT id, credential_id, action, actor_address, metadata, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
	`

	return r.queryEntries(ctx, query)
}

func (r *AuditLogRepo) queryEntries(ctx context.Context, query string, args ...any) ([]model.AuditLogEntry, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditLogEntry
	for rows.Next() {
		var entry model.AuditLogEntry
		var action, metadataJSON, createdAt string

		if err := rows.Scan(&entry.ID, &entry.CredentialID, &action, &entry.ActorAddress, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.Action = model.AuditAction(action)

		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}

		entry.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
