package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trinetra-dev/credregistry/internal/application"
	"github.com/trinetra-dev/credregistry/internal/domain/model"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	registry  *application.RegistryService
	dashboard *application.DashboardService
	assistant *application.AssistantService
	inference driven.InferenceClient // nil when no API key is configured.
	shareTTL  time.Duration
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
// inference may be nil; the natural chat endpoint then answers 503.
func NewHandler(
	registry *application.RegistryService,
	dashboard *application.DashboardService,
	assistant *application.AssistantService,
	inference driven.InferenceClient,
	shareTTL time.Duration,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		registry:  registry,
		dashboard: dashboard,
		assistant: assistant,
		inference: inference,
		shareTTL:  shareTTL,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/credentials", h.IssueCredential)
	mux.HandleFunc("GET /api/v1/credentials/student/{address}", h.ListByStudent)
	mux.HandleFunc("GET /api/v1/credentials/institution/{address}", h.ListByInstitution)
	mux.HandleFunc("GET /api/v1/credentials/{id}/audit", h.AuditTrail)
	mux.HandleFunc("POST /api/v1/credentials/{id}/shares", h.CreateShare)
	mux.HandleFunc("GET /api/v1/shares/{token}", h.ResolveShare)
	mux.HandleFunc("POST /api/v1/revocations", h.Revoke)
	mux.HandleFunc("GET /api/v1/institutions/{address}/stats", h.InstitutionStats)
	mux.HandleFunc("GET /api/v1/dashboard/stats", h.DashboardStats)
	mux.HandleFunc("GET /api/v1/dashboard/chart", h.DashboardChart)
	mux.HandleFunc("POST /api/v1/assistant/chat", h.AssistantChat)
	mux.HandleFunc("POST /api/v1/assistant/natural", h.NaturalChat)
	mux.HandleFunc("GET /api/v1/assistant/suggestions", h.AssistantSuggestions)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// IssueCredential records a new credential.
func (h *Handler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	var req IssueCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TokenID == "" || req.StudentAddress == "" || req.InstitutionAddress == "" {
		writeError(w, http.StatusBadRequest, "token_id, student_address, and institution_address are required")
		return
	}

	issueDate, err := time.Parse(time.RFC3339, req.IssueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "issue_date must be RFC 3339")
		return
	}

	id := h.registry.IssueCredential(r.Context(), application.IssueParams{
		TokenID:            req.TokenID,
		StudentAddress:     req.StudentAddress,
		InstitutionName:    req.InstitutionName,
		InstitutionAddress: req.InstitutionAddress,
		Degree:             req.Degree,
		IPFSHash:           req.IPFSHash,
		IssueDate:          issueDate,
	})
	if id == "" {
		writeError(w, http.StatusInternalServerError, "could not issue credential")
		return
	}

	writeJSON(w, http.StatusCreated, IssueCredentialResponse{ID: id})
}

// ListByStudent returns the student's credentials, newest first.
func (h *Handler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	creds := h.registry.CredentialsByStudent(r.Context(), r.PathValue("address"))
	writeJSON(w, http.StatusOK, toCredentialResponses(creds))
}

// ListByInstitution returns the institution's issued credentials, newest first.
func (h *Handler) ListByInstitution(w http.ResponseWriter, r *http.Request) {
	creds := h.registry.CredentialsByInstitution(r.Context(), r.PathValue("address"))
	writeJSON(w, http.StatusOK, toCredentialResponses(creds))
}

// AuditTrail returns the audit entries for a credential, newest first.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.AuditTrail(r.Context(), r.PathValue("id"))

	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toAuditEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateShare issues a share token for a credential.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SharedWith == "" {
		writeError(w, http.StatusBadRequest, "shared_with is required")
		return
	}

	ttl := h.shareTTL
	if req.ExpiresInHours != nil {
		ttl = time.Duration(*req.ExpiresInHours) * time.Hour
	}

	token := h.registry.CreateShare(r.Context(), r.PathValue("id"), req.SharedWith, ttl)
	if token == "" {
		writeError(w, http.StatusInternalServerError, "could not create share")
		return
	}

	writeJSON(w, http.StatusCreated, CreateShareResponse{Token: token})
}

// ResolveShare redeems a share token. Expired and unknown tokens are both 404.
func (h *Handler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	cred := h.registry.ResolveShare(r.Context(), r.PathValue("token"))
	if cred == nil {
		writeError(w, http.StatusNotFound, "share not found")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*cred))
}

// Revoke marks a credential as revoked by its ledger token id.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TokenID == "" {
		writeError(w, http.StatusBadRequest, "token_id is required")
		return
	}

	revoked := h.registry.RevokeCredential(r.Context(), req.TokenID, req.ActorAddress)
	writeJSON(w, http.StatusOK, RevokeResponse{Revoked: revoked})
}

// InstitutionStats returns per-institution issuance aggregates.
func (h *Handler) InstitutionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.registry.InstitutionStats(r.Context(), r.PathValue("address"))
	writeJSON(w, http.StatusOK, InstitutionStatsResponse{
		TotalIssued:  stats.TotalIssued,
		TotalRevoked: stats.TotalRevoked,
		RecentIssued: stats.RecentIssued,
	})
}

// DashboardStats returns the platform-wide dashboard counters.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats := h.dashboard.Stats(r.Context())
	writeJSON(w, http.StatusOK, DashboardStatsResponse{
		TotalCredentials:   stats.TotalCredentials,
		ActiveInstitutions: stats.ActiveInstitutions,
		VerificationRate:   stats.VerificationRate,
		SystemHealth:       stats.SystemHealth,
		TotalShares:        stats.TotalShares,
		RevokedCredentials: stats.RevokedCredentials,
	})
}

// DashboardChart returns per-day activity counts for the requested range.
func (h *Handler) DashboardChart(w http.ResponseWriter, r *http.Request) {
	chartRange := model.ChartRange(r.URL.Query().Get("range"))
	switch chartRange {
	case model.RangeWeek, model.RangeMonth, model.RangeYear:
	case "":
		chartRange = model.RangeWeek
	default:
		writeError(w, http.StatusBadRequest, "range must be week, month, or year")
		return
	}

	points := h.dashboard.ChartSeries(r.Context(), chartRange)

	resp := make([]ChartPointResponse, 0, len(points))
	for _, p := range points {
		resp = append(resp, toChartPointResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AssistantChat answers a platform question from the static knowledge base.
func (h *Handler) AssistantChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	reply := h.assistant.Reply(req.Message)
	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:     reply,
		ReplyHTML: renderMarkdown(reply),
	})
}

// NaturalChat forwards a free-form question to the hosted inference endpoint.
func (h *Handler) NaturalChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	if h.inference == nil {
		writeError(w, http.StatusServiceUnavailable, "inference endpoint is not configured")
		return
	}

	reply, err := h.inference.Generate(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("inference call failed", "error", err)
		writeError(w, http.StatusBadGateway, "inference endpoint unavailable")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:     reply,
		ReplyHTML: renderMarkdown(reply),
	})
}

// AssistantSuggestions returns the quick-start questions.
func (h *Handler) AssistantSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: h.assistant.Suggestions()})
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return ChatRequest{}, false
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return ChatRequest{}, false
	}
	return req, true
}

func toCredentialResponses(creds []model.Credential) []CredentialResponse {
	resp := make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toCredentialResponse(c))
	}
	return resp
}
