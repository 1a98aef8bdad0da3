package model

import "time"

// Credential is a record asserting that an institution granted a degree to a
// student. The degree document itself lives in external content-addressed
// storage; only its hash is kept here. The on-ledger token is referenced by
// TokenID but its semantics (minting, ownership) are outside this service.
type Credential struct {
	ID                 string
	TokenID            string
	StudentAddress     string
	InstitutionName    string
	InstitutionAddress string
	Degree             string
	IPFSHash           string
	IssueDate          time.Time
	Revoked            bool // Monotonic: once true it never reverts.
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
