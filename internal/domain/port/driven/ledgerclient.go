package driven

import "context"

// LedgerClient is the read-only view of the deployed credential contract.
// The contract's real logic (owner checks, token minting) lives on chain;
// this service only probes it for a coarse health signal.
type LedgerClient interface {
	// Owner returns the contract owner address.
	Owner(ctx context.Context) (string, error)
}
