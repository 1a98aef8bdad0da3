package model

import "time"

// AuditLogEntry is an immutable record of one action taken against a
// Credential. Every mutating registry operation appends exactly one entry.
type AuditLogEntry struct {
	ID           string
	CredentialID string
	Action       AuditAction
	ActorAddress string
	Metadata     map[string]any
	CreatedAt    time.Time
}
