package driven

import (
	"context"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
)

// ShareStore defines the driven port for share token persistence.
type ShareStore interface {
	Insert(ctx context.Context, share model.Share) error
	// GetActiveByToken returns the share for the given token if it has not
	// expired at the given instant, or nil, nil when the token is unknown or
	// expired. The two cases are deliberately indistinguishable.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*model.Share, error)
	// IncrementAccessCount bumps the redemption counter by one in a single
	// statement, so concurrent redemptions cannot lose updates.
	IncrementAccessCount(ctx context.Context, token string) error
	CountAll(ctx context.Context) (int, error)
}
