package model

import "time"

// Share is a time-bounded capability granting read access to one Credential
// without authentication. It is never updated after creation except for the
// access counter, and becomes inert once ExpiresAt passes; expired rows are
// kept, not deleted.
type Share struct {
	ID           string
	CredentialID string
	SharedWith   string
	Token        string
	ExpiresAt    time.Time
	AccessCount  int
	CreatedAt    time.Time
}

// Expired reports whether the share is no longer redeemable at the given instant.
func (s Share) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
