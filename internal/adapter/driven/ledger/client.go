// Package ledger implements the LedgerClient port over Ethereum JSON-RPC.
// The contract is consumed read-only; the only call this service makes is the
// owner() accessor used as a coarse health probe.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LedgerClient = (*Client)(nil)

// ownerSelector is the 4-byte function selector of owner().
const ownerSelector = "0x8da5cb5b"

// Client implements the driven.LedgerClient port with plain eth_call requests.
type Client struct {
	httpClient      *http.Client
	rpcURL          string
	contractAddress string
}

// NewClient creates a ledger client for the given JSON-RPC endpoint and
// deployed contract address.
func NewClient(rpcURL, contractAddress string) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		rpcURL:          rpcURL,
		contractAddress: contractAddress,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, rpcURL, contractAddress string) *Client {
	return &Client{
		httpClient:      httpClient,
		rpcURL:          rpcURL,
		contractAddress: contractAddress,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Owner calls owner() on the contract and returns the owner address.
func (c *Client) Owner(ctx context.Context) (string, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_call",
		Params: []any{
			map[string]string{
				"to":   c.contractAddress,
				"data": ownerSelector,
			},
			"latest",
		},
		ID: 1,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("eth_call owner(): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("eth_call owner(): unexpected status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("decode rpc response: %w", err)
	}

	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	addr, err := decodeAddress(rpcResp.Result)
	if err != nil {
		return "", fmt.Errorf("decode owner address: %w", err)
	}

	return addr, nil
}

// decodeAddress extracts the address from a 32-byte ABI-encoded return value.
func decodeAddress(result string) (string, error) {
	hexData := strings.TrimPrefix(result, "0x")
	if len(hexData) != 64 {
		return "", fmt.Errorf("unexpected return length %d", len(hexData))
	}

	// An address is the low 20 bytes of the 32-byte word.
	return "0x" + hexData[24:], nil
}
