package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/trinetra-dev/credregistry/internal/adapter/driving/http"
	"github.com/trinetra-dev/credregistry/internal/application"
	"github.com/trinetra-dev/credregistry/internal/domain/model"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
	"github.com/trinetra-dev/credregistry/internal/metrics"
)

var errStore = errors.New("store unavailable")

// In-memory port fakes backing real application services.

type stubCredentialStore struct {
	creds     []model.Credential
	insertErr error
}

func (s *stubCredentialStore) Insert(_ context.Context, cred model.Credential) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.creds = append(s.creds, cred)
	return nil
}

func (s *stubCredentialStore) GetByID(_ context.Context, id string) (*model.Credential, error) {
	for i := range s.creds {
		if s.creds[i].ID == id {
			cred := s.creds[i]
			return &cred, nil
		}
	}
	return nil, nil
}

func (s *stubCredentialStore) GetByTokenID(_ context.Context, tokenID string) (*model.Credential, error) {
	for i := range s.creds {
		if s.creds[i].TokenID == tokenID {
			cred := s.creds[i]
			return &cred, nil
		}
	}
	return nil, nil
}

func (s *stubCredentialStore) ListByStudent(_ context.Context, studentAddress string) ([]model.Credential, error) {
	var out []model.Credential
	for _, c := range s.creds {
		if c.StudentAddress == studentAddress {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCredentialStore) ListByInstitution(_ context.Context, institutionAddress string) ([]model.Credential, error) {
	var out []model.Credential
	for _, c := range s.creds {
		if c.InstitutionAddress == institutionAddress {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCredentialStore) ListAll(_ context.Context) ([]model.Credential, error) {
	return s.creds, nil
}

func (s *stubCredentialStore) SetRevoked(_ context.Context, tokenID string, at time.Time) error {
	for i := range s.creds {
		if s.creds[i].TokenID == tokenID {
			s.creds[i].Revoked = true
			s.creds[i].UpdatedAt = at
		}
	}
	return nil
}

type stubShareStore struct {
	shares []model.Share
}

func (s *stubShareStore) Insert(_ context.Context, share model.Share) error {
	s.shares = append(s.shares, share)
	return nil
}

func (s *stubShareStore) GetActiveByToken(_ context.Context, token string, now time.Time) (*model.Share, error) {
	for i := range s.shares {
		if s.shares[i].Token == token && !s.shares[i].Expired(now) {
			share := s.shares[i]
			return &share, nil
		}
	}
	return nil, nil
}

func (s *stubShareStore) IncrementAccessCount(_ context.Context, token string) error {
	for i := range s.shares {
		if s.shares[i].Token == token {
			s.shares[i].AccessCount++
		}
	}
	return nil
}

func (s *stubShareStore) CountAll(_ context.Context) (int, error) {
	return len(s.shares), nil
}

type stubAuditLogStore struct {
	entries []model.AuditLogEntry
}

func (s *stubAuditLogStore) Append(_ context.Context, entry model.AuditLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditLogStore) ListByCredential(_ context.Context, credentialID string) ([]model.AuditLogEntry, error) {
	var out []model.AuditLogEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].CredentialID == credentialID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *stubAuditLogStore) ListAll(_ context.Context) ([]model.AuditLogEntry, error) {
	return s.entries, nil
}

type stubInferenceClient struct {
	reply string
	err   error
}

func (s *stubInferenceClient) Generate(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type testEnv struct {
	handler http.Handler
	creds   *stubCredentialStore
	shares  *stubShareStore
	audits  *stubAuditLogStore
}

func setupHandler(t *testing.T, inference *stubInferenceClient) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	creds := &stubCredentialStore{}
	shares := &stubShareStore{}
	audits := &stubAuditLogStore{}

	registry := application.NewRegistryService(creds, shares, audits, logger, metrics.NewUnregistered())
	dashboard := application.NewDashboardService(creds, shares, audits, nil, logger)
	assistant := application.NewAssistantService()

	// A typed nil pointer would defeat the handler's inference == nil check,
	// so only assign the interface when a stub is actually provided.
	var inferenceClient driven.InferenceClient
	if inference != nil {
		inferenceClient = inference
	}

	h := httphandler.NewHandler(registry, dashboard, assistant, inferenceClient, 24*time.Hour, logger)

	return &testEnv{
		handler: httphandler.NewServeMux(h, logger),
		creds:   creds,
		shares:  shares,
		audits:  audits,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

const issueBody = `{
	"token_id": "42",
	"student_address": "0xAAA",
	"institution_name": "Test University",
	"institution_address": "0xBBB",
	"degree": "B.Sc. Computer Science",
	"ipfs_hash": "QmHash",
	"issue_date": "2025-06-01T00:00:00Z"
}`

func TestIssueCredential(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", issueBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[map[string]string](t, rec)
	assert.NotEmpty(t, resp["id"])
	assert.Len(t, env.creds.creds, 1)
}

func TestIssueCredential_InvalidBody(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueCredential_MissingFields(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", `{"token_id": "42"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueCredential_BadIssueDate(t *testing.T) {
	env := setupHandler(t, nil)

	body := strings.Replace(issueBody, "2025-06-01T00:00:00Z", "yesterday", 1)
	rec := env.do(t, http.MethodPost, "/api/v1/credentials", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueCredential_StoreError(t *testing.T) {
	env := setupHandler(t, nil)
	env.creds.insertErr = errStore

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", issueBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListByStudent(t *testing.T) {
	env := setupHandler(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/credentials", issueBody).Code)

	rec := env.do(t, http.MethodGet, "/api/v1/credentials/student/0xAAA", "")
	require.Equal(t, http.StatusOK, rec.Code)

	creds := decodeBody[[]map[string]any](t, rec)
	require.Len(t, creds, 1)
	assert.Equal(t, "42", creds[0]["token_id"])

	rec = env.do(t, http.MethodGet, "/api/v1/credentials/student/0xNOBODY", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestShareFlow(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", issueBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[map[string]string](t, rec)["id"]

	rec = env.do(t, http.MethodPost, "/api/v1/credentials/"+id+"/shares", `{"shared_with": "employer@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[map[string]string](t, rec)["token"]
	require.True(t, strings.HasPrefix(token, "share_"), "token: %s", token)

	rec = env.do(t, http.MethodGet, "/api/v1/shares/"+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cred := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "42", cred["token_id"])
	assert.Equal(t, false, cred["revoked"])
}

func TestCreateShare_MissingSharedWith(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials/cred-1/shares", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveShare_Unknown(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/shares/share_nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveShare_Expired(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", issueBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[map[string]string](t, rec)["id"]

	rec = env.do(t, http.MethodPost, "/api/v1/credentials/"+id+"/shares", `{"shared_with": "employer@example.com", "expires_in_hours": 0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[map[string]string](t, rec)["token"]

	rec = env.do(t, http.MethodGet, "/api/v1/shares/"+token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "expired shares are indistinguishable from unknown ones")
}

func TestRevoke(t *testing.T) {
	env := setupHandler(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/credentials", issueBody).Code)

	rec := env.do(t, http.MethodPost, "/api/v1/revocations", `{"token_id": "42", "actor_address": "0xBBB"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"revoked": true}`, rec.Body.String())
	assert.True(t, env.creds.creds[0].Revoked)
}

func TestRevoke_UnknownToken(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/revocations", `{"token_id": "99"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"revoked": false}`, rec.Body.String())
}

func TestRevoke_MissingTokenID(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/revocations", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditTrail(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/credentials", issueBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[map[string]string](t, rec)["id"]

	rec = env.do(t, http.MethodGet, "/api/v1/credentials/"+id+"/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decodeBody[[]map[string]any](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "issued", entries[0]["action"])
	assert.Equal(t, id, entries[0]["credential_id"])
}

func TestInstitutionStats(t *testing.T) {
	env := setupHandler(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/credentials", issueBody).Code)

	rec := env.do(t, http.MethodGet, "/api/v1/institutions/0xBBB/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 1, stats["total_issued"])
	assert.Equal(t, 0, stats["total_revoked"])
}

func TestDashboardStats(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 0, stats["total_credentials"])
	assert.Equal(t, 85, stats["system_health"], "no ledger configured")
}

func TestDashboardChart(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 7, "default range is a week")

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/chart?range=month", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 30)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/chart?range=decade", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantChat(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/assistant/chat", `{"message": "How do I revoke a credential?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[map[string]string](t, rec)
	assert.Contains(t, resp["reply"], "revoke")
	assert.Contains(t, resp["reply_html"], "<strong>revoked</strong>")
}

func TestAssistantChat_MissingMessage(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/assistant/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNaturalChat_NotConfigured(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/assistant/natural", `{"message": "hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNaturalChat(t *testing.T) {
	env := setupHandler(t, &stubInferenceClient{reply: "**Generated** answer"})

	rec := env.do(t, http.MethodPost, "/api/v1/assistant/natural", `{"message": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "**Generated** answer", resp["reply"])
	assert.Contains(t, resp["reply_html"], "<strong>Generated</strong>")
}

func TestNaturalChat_InferenceError(t *testing.T) {
	env := setupHandler(t, &stubInferenceClient{err: errors.New("endpoint down")})

	rec := env.do(t, http.MethodPost, "/api/v1/assistant/natural", `{"message": "hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAssistantSuggestions(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/assistant/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[map[string][]string](t, rec)
	assert.Len(t, resp["suggestions"], 6)
}

func TestHealth(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["time"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupHandler(t, nil)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
