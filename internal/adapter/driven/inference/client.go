// Package inference implements the InferenceClient port against a hosted
// text-generation endpoint (Hugging Face Inference API shape).
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.InferenceClient = (*Client)(nil)

const (
	defaultBaseURL = "https://api-inference.huggingface.co"
	maxRetries     = 3
)

// Client implements driven.InferenceClient with retry on transient endpoint
// errors. Hosted models return 503 while loading and 429 under rate limits;
// both are retried with exponential backoff, everything else fails fast.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates an inference client for the given model, authenticated
// with the given API key.
func NewClient(apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
	Error         string `json:"error"`
}

// errTransient marks responses worth retrying.
var errTransient = errors.New("transient inference error")

// Generate produces a completion for the prompt. Transient endpoint errors
// (model loading, rate limiting) are retried up to 3 times with exponential
// backoff before giving up.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries),
		ctx,
	)

	var text string
	operation := func() error {
		var err error
		text, err = c.generateOnce(ctx, prompt)
		if err != nil && !errors.Is(err, errTransient) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens:   512,
			Temperature:    0.7,
			TopP:           0.9,
			ReturnFullText: false,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp generateResponse
		_ = json.Unmarshal(body, &errResp)

		msg := errResp.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}

		if isTransient(resp.StatusCode, msg) {
			return "", fmt.Errorf("%w: %s", errTransient, msg)
		}
		return "", fmt.Errorf("inference endpoint: %s", msg)
	}

	return parseGenerated(body)
}

// isTransient reports whether the failure is a model-loading or rate-limit
// condition that a short wait can resolve.
func isTransient(status int, msg string) bool {
	if status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "loading") || strings.Contains(lower, "rate limit")
}

// parseGenerated accepts both response shapes the endpoint produces:
// a single-element array of objects, or a bare object.
func parseGenerated(body []byte) (string, error) {
	var list []generateResponse
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].GeneratedText != "" {
		return strings.TrimSpace(list[0].GeneratedText), nil
	}

	var single generateResponse
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return strings.TrimSpace(single.GeneratedText), nil
	}

	return "", errors.New("no generated text in inference response")
}
