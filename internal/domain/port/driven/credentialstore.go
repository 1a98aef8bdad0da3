package driven

import (
	"context"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
)

// CredentialStore defines the driven port for credential persistence.
// Lookups return nil, nil when no row matches.
type CredentialStore interface {
	Insert(ctx context.Context, cred model.Credential) error
	GetByID(ctx context.Context, id string) (*model.Credential, error)
	GetByTokenID(ctx context.Context, tokenID string) (*model.Credential, error)
	ListByStudent(ctx context.Context, studentAddress string) ([]model.Credential, error)
	ListByInstitution(ctx context.Context, institutionAddress string) ([]model.Credential, error)
	ListAll(ctx context.Context) ([]model.Credential, error)
	// SetRevoked marks the credential for the given ledger token id as revoked.
	// Revocation is one-way; there is no operation to clear the flag.
	SetRevoked(ctx context.Context, tokenID string, at time.Time) error
}
