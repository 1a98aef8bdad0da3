package application

import (
	"context"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
)

// In-memory fakes for the driven ports. Each method has an injectable error
// so tests can simulate store failures per call site.

type fakeCredentialStore struct {
	creds []model.Credential

	insertErr error
	getErr    error
	listErr   error
	revokeErr error
}

func (f *fakeCredentialStore) Insert(_ context.Context, cred model.Credential) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.creds = append(f.creds, cred)
	return nil
}

func (f *fakeCredentialStore) GetByID(_ context.Context, id string) (*model.Credential, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.creds {
		if f.creds[i].ID == id {
			cred := f.creds[i]
			return &cred, nil
		}
	}
	return nil, nil
}

func (f *fakeCredentialStore) GetByTokenID(_ context.Context, tokenID string) (*model.Credential, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.creds {
		if f.creds[i].TokenID == tokenID {
			cred := f.creds[i]
			return &cred, nil
		}
	}
	return nil, nil
}

func (f *fakeCredentialStore) ListByStudent(_ context.Context, studentAddress string) ([]model.Credential, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Credential
	for _, c := range f.creds {
		if c.StudentAddress == studentAddress {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredentialStore) ListByInstitution(_ context.Context, institutionAddress string) ([]model.Credential, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Credential
	for _, c := range f.creds {
		if c.InstitutionAddress == institutionAddress {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredentialStore) ListAll(_ context.Context) ([]model.Credential, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.creds, nil
}

func (f *fakeCredentialStore) SetRevoked(_ context.Context, tokenID string, at time.Time) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	for i := range f.creds {
		if f.creds[i].TokenID == tokenID {
			f.creds[i].Revoked = true
			f.creds[i].UpdatedAt = at
			return nil
		}
	}
	return nil
}

type fakeShareStore struct {
	shares []model.Share

	insertErr    error
	getErr       error
	incrementErr error
	countErr     error
}

func (f *fakeShareStore) Insert(_ context.Context, share model.Share) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.shares = append(f.shares, share)
	return nil
}

func (f *fakeShareStore) GetActiveByToken(_ context.Context, token string, now time.Time) (*model.Share, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.shares {
		if f.shares[i].Token == token && !f.shares[i].Expired(now) {
			share := f.shares[i]
			return &share, nil
		}
	}
	return nil, nil
}

func (f *fakeShareStore) IncrementAccessCount(_ context.Context, token string) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	for i := range f.shares {
		if f.shares[i].Token == token {
			f.shares[i].AccessCount++
		}
	}
	return nil
}

func (f *fakeShareStore) CountAll(_ context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.shares), nil
}

type fakeAuditLogStore struct {
	entries []model.AuditLogEntry

	appendErr error
	listErr   error
}

func (f *fakeAuditLogStore) Append(_ context.Context, entry model.AuditLogEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditLogStore) ListByCredential(_ context.Context, credentialID string) ([]model.AuditLogEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.AuditLogEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].CredentialID == credentialID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeAuditLogStore) ListAll(_ context.Context) ([]model.AuditLogEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

type fakeLedgerClient struct {
	owner string
	err   error
}

func (f *fakeLedgerClient) Owner(_ context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.owner, nil
}
