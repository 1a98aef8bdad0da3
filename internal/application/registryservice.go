package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
	"github.com/trinetra-dev/credregistry/internal/metrics"
)

// RegistryService is the credential registry gateway. It translates domain
// operations into store calls and pairs every mutation with an audit entry.
//
// Its failure policy is deliberate: store errors never escape to callers.
// Every operation catches them, logs them, counts them in metrics, and
// returns a neutral empty/nil/false result, so callers cannot distinguish
// "not found" from "store unavailable". Audit writes are best-effort and
// never affect the primary result.
type RegistryService struct {
	credentials driven.CredentialStore
	shares      driven.ShareStore
	audits      driven.AuditLogStore
	logger      *slog.Logger
	metrics     *metrics.Registry

	// Injectable for tests.
	now      func() time.Time
	newID    func() string
	newToken func() string
}

// NewRegistryService creates a RegistryService with the required dependencies.
func NewRegistryService(
	credentials driven.CredentialStore,
	shares driven.ShareStore,
	audits driven.AuditLogStore,
	logger *slog.Logger,
	m *metrics.Registry,
) *RegistryService {
	return &RegistryService{
		credentials: credentials,
		shares:      shares,
		audits:      audits,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
		newID:       uuid.NewString,
		newToken:    newShareToken,
	}
}

// newShareToken generates an unguessable share token. The "share_" prefix
// keeps tokens recognizable in logs; the 16 random bytes make collisions and
// guessing infeasible.
func newShareToken() string {
	buf := make([]byte, 16)
	// rand.Read never fails on supported platforms; it panics internally otherwise.
	_, _ = rand.Read(buf)
	return "share_" + hex.EncodeToString(buf)
}

// IssueParams carries the inputs for issuing a credential.
type IssueParams struct {
	TokenID            string
	StudentAddress     string
	InstitutionName    string
	InstitutionAddress string
	Degree             string
	IPFSHash           string
	IssueDate          time.Time
}

// IssueCredential records a newly minted credential and appends an "issued"
// audit entry. Returns the new credential id, or "" if the insert fails.
func (s *RegistryService) IssueCredential(ctx context.Context, p IssueParams) string {
	now := s.now().UTC()
	cred := model.Credential{
		ID:                 s.newID(),
		TokenID:            p.TokenID,
		StudentAddress:     p.StudentAddress,
		InstitutionName:    p.InstitutionName,
		InstitutionAddress: p.InstitutionAddress,
		Degree:             p.Degree,
		IPFSHash:           p.IPFSHash,
		IssueDate:          p.IssueDate,
		Revoked:            false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.credentials.Insert(ctx, cred); err != nil {
		s.logger.Error("issue credential failed", "token_id", p.TokenID, "error", err)
		s.metrics.Operation("issue", metrics.OutcomeStoreError)
		return ""
	}

	s.appendAudit(ctx, cred.ID, model.ActionIssued, p.InstitutionAddress, map[string]any{
		"tokenId":         p.TokenID,
		"degree":          p.Degree,
		"institutionName": p.InstitutionName,
	})

	s.metrics.Operation("issue", metrics.OutcomeOK)
	return cred.ID
}

// CredentialsByStudent returns the student's credentials, newest issue date
// first. Returns an empty slice on store failure.
func (s *RegistryService) CredentialsByStudent(ctx context.Context, studentAddress string) []model.Credential {
	creds, err := s.credentials.ListByStudent(ctx, studentAddress)
	if err != nil {
		s.logger.Error("list credentials by student failed", "student", studentAddress, "error", err)
		s.metrics.Operation("list_by_student", metrics.OutcomeStoreError)
		return []model.Credential{}
	}

	s.metrics.Operation("list_by_student", metrics.OutcomeOK)
	if creds == nil {
		creds = []model.Credential{}
	}
	return creds
}

// CredentialsByInstitution returns the institution's issued credentials,
// newest issue date first. Returns an empty slice on store failure.
func (s *RegistryService) CredentialsByInstitution(ctx context.Context, institutionAddress string) []model.Credential {
	creds, err := s.credentials.ListByInstitution(ctx, institutionAddress)
	if err != nil {
		s.logger.Error("list credentials by institution failed", "institution", institutionAddress, "error", err)
		s.metrics.Operation("list_by_institution", metrics.OutcomeStoreError)
		return []model.Credential{}
	}

	s.metrics.Operation("list_by_institution", metrics.OutcomeOK)
	if creds == nil {
		creds = []model.Credential{}
	}
	return creds
}

// CreateShare issues a time-bounded share token for the given credential and
// appends a "shared" audit entry. Returns the token, or "" on failure.
// A zero or negative ttl produces a share that is already expired; creation
// still succeeds.
func (s *RegistryService) CreateShare(ctx context.Context, credentialID, sharedWith string, ttl time.Duration) string {
	now := s.now().UTC()
	share := model.Share{
		ID:           s.newID(),
		CredentialID: credentialID,
		SharedWith:   sharedWith,
		Token:        s.newToken(),
		ExpiresAt:    now.Add(ttl),
		AccessCount:  0,
		CreatedAt:    now,
	}

	if err := s.shares.Insert(ctx, share); err != nil {
		s.logger.Error("create share failed", "credential_id", credentialID, "error", err)
		s.metrics.Operation("create_share", metrics.OutcomeStoreError)
		return ""
	}

	s.appendAudit(ctx, credentialID, model.ActionShared, sharedWith, map[string]any{
		"expiresAt": share.ExpiresAt.Format(time.RFC3339),
	})

	s.metrics.Operation("create_share", metrics.OutcomeOK)
	return share.Token
}

// ResolveShare redeems a share token. Expired and unknown tokens both yield
// nil, with no way for the caller to tell which. On a hit the access counter
// is bumped, the credential is fetched, and a "verified" audit entry is
// appended. The credential is returned even when revoked; callers must check
// the flag themselves.
func (s *RegistryService) ResolveShare(ctx context.Context, token string) *model.Credential {
	share, err := s.shares.GetActiveByToken(ctx, token, s.now().UTC())
	if err != nil {
		s.logger.Error("share lookup failed", "error", err)
		s.metrics.Operation("resolve_share", metrics.OutcomeStoreError)
		return nil
	}
	if share == nil {
		s.metrics.Operation("resolve_share", metrics.OutcomeNotFound)
		s.metrics.ShareResolution(false)
		return nil
	}

	if err := s.shares.IncrementAccessCount(ctx, token); err != nil {
		// Best-effort: a lost counter bump does not block redemption.
		s.logger.Error("access count increment failed", "error", err)
	}

	cred, err := s.credentials.GetByID(ctx, share.CredentialID)
	if err != nil {
		s.logger.Error("credential fetch for share failed", "credential_id", share.CredentialID, "error", err)
		s.metrics.Operation("resolve_share", metrics.OutcomeStoreError)
		return nil
	}
	if cred == nil {
		s.metrics.Operation("resolve_share", metrics.OutcomeNotFound)
		s.metrics.ShareResolution(false)
		return nil
	}

	s.appendAudit(ctx, cred.ID, model.ActionVerified, "share_token_access", map[string]any{
		"shareToken": token,
	})

	s.metrics.Operation("resolve_share", metrics.OutcomeOK)
	s.metrics.ShareResolution(true)
	return cred
}

// RevokeCredential marks the credential for the given ledger token id as
// revoked and appends a "revoked" audit entry. Revocation is idempotent:
// revoking an already-revoked credential succeeds and logs again. Returns
// false when the token id is unknown (no side effects) or on store failure.
func (s *RegistryService) RevokeCredential(ctx context.Context, tokenID, actorAddress string) bool {
	cred, err := s.credentials.GetByTokenID(ctx, tokenID)
	if err != nil {
		s.logger.Error("revoke lookup failed", "token_id", tokenID, "error", err)
		s.metrics.Operation("revoke", metrics.OutcomeStoreError)
		return false
	}
	if cred == nil {
		s.metrics.Operation("revoke", metrics.OutcomeNotFound)
		return false
	}

	if err := s.credentials.SetRevoked(ctx, tokenID, s.now().UTC()); err != nil {
		s.logger.Error("revoke update failed", "token_id", tokenID, "error", err)
		s.metrics.Operation("revoke", metrics.OutcomeStoreError)
		return false
	}

	s.appendAudit(ctx, cred.ID, model.ActionRevoked, actorAddress, map[string]any{
		"tokenId": tokenID,
	})

	s.metrics.Operation("revoke", metrics.OutcomeOK)
	return true
}

// AuditTrail returns the audit entries for one credential, newest first.
// Returns an empty slice on store failure.
func (s *RegistryService) AuditTrail(ctx context.Context, credentialID string) []model.AuditLogEntry {
	entries, err := s.audits.ListByCredential(ctx, credentialID)
	if err != nil {
		s.logger.Error("audit trail fetch failed", "credential_id", credentialID, "error", err)
		s.metrics.Operation("audit_trail", metrics.OutcomeStoreError)
		return []model.AuditLogEntry{}
	}

	s.metrics.Operation("audit_trail", metrics.OutcomeOK)
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	return entries
}

// InstitutionStats aggregates issuance counts for one institution.
// RecentIssued counts credentials issued within the trailing calendar month
// (one-month subtraction, not a fixed 720h window). Returns zeros on store
// failure.
func (s *RegistryService) InstitutionStats(ctx context.Context, institutionAddress string) model.InstitutionStats {
	creds, err := s.credentials.ListByInstitution(ctx, institutionAddress)
	if err != nil {
		s.logger.Error("institution stats fetch failed", "institution", institutionAddress, "error", err)
		s.metrics.Operation("institution_stats", metrics.OutcomeStoreError)
		return model.InstitutionStats{}
	}

	lastMonth := s.now().UTC().AddDate(0, -1, 0)

	var stats model.InstitutionStats
	stats.TotalIssued = len(creds)
	for _, c := range creds {
		if c.Revoked {
			stats.TotalRevoked++
		}
		if c.IssueDate.After(lastMonth) {
			stats.RecentIssued++
		}
	}

	s.metrics.Operation("institution_stats", metrics.OutcomeOK)
	return stats
}

// appendAudit writes an audit entry, logging and counting failures without
// propagating them. A crash between a mutation and its audit write can leave
// the mutation un-audited; the two writes are not wrapped in a transaction.
func (s *RegistryService) appendAudit(ctx context.Context, credentialID string, action model.AuditAction, actor string, metadata map[string]any) {
	entry := model.AuditLogEntry{
		ID:           s.newID(),
		CredentialID: credentialID,
		Action:       action,
		ActorAddress: actor,
		Metadata:     metadata,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Error("audit write failed",
			"credential_id", credentialID,
			"action", string(action),
			"error", err,
		)
		s.metrics.AuditDropped()
	}
}
