package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialResponse is the JSON representation of a credential.
type CredentialResponse struct {
	ID                 string `json:"id"`
	TokenID            string `json:"token_id"`
	StudentAddress     string `json:"student_address"`
	InstitutionName    string `json:"institution_name"`
	InstitutionAddress string `json:"institution_address"`
	Degree             string `json:"degree"`
	IPFSHash           string `json:"ipfs_hash"`
	IssueDate          string `json:"issue_date"`
	Revoked            bool   `json:"revoked"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// AuditEntryResponse is the JSON representation of an audit log entry.
type AuditEntryResponse struct {
	ID           string         `json:"id"`
	CredentialID string         `json:"credential_id"`
	Action       string         `json:"action"`
	ActorAddress string         `json:"actor_address"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    string         `json:"created_at"`
}

// IssueCredentialRequest is the JSON body for the issue endpoint.
type IssueCredentialRequest struct {
	TokenID            string `json:"token_id"`
	StudentAddress     string `json:"student_address"`
	InstitutionName    string `json:"institution_name"`
	InstitutionAddress string `json:"institution_address"`
	Degree             string `json:"degree"`
	IPFSHash           string `json:"ipfs_hash"`
	IssueDate          string `json:"issue_date"` // RFC 3339
}

// IssueCredentialResponse is the JSON body returned on successful issuance.
type IssueCredentialResponse struct {
	ID string `json:"id"`
}

// CreateShareRequest is the JSON body for the share creation endpoint.
type CreateShareRequest struct {
	SharedWith     string `json:"shared_with"`
	ExpiresInHours *int   `json:"expires_in_hours"` // nil means the configured default.
}

// CreateShareResponse is the JSON body returned on successful share creation.
type CreateShareResponse struct {
	Token string `json:"token"`
}

// RevokeRequest is the JSON body for the revocation endpoint.
type RevokeRequest struct {
	TokenID      string `json:"token_id"`
	ActorAddress string `json:"actor_address"`
}

// RevokeResponse is the JSON body of the revocation result.
type RevokeResponse struct {
	Revoked bool `json:"revoked"`
}

// InstitutionStatsResponse is the per-institution aggregate view.
type InstitutionStatsResponse struct {
	TotalIssued  int `json:"total_issued"`
	TotalRevoked int `json:"total_revoked"`
	RecentIssued int `json:"recent_issued"`
}

// DashboardStatsResponse is the platform-wide dashboard view.
type DashboardStatsResponse struct {
	TotalCredentials   int `json:"total_credentials"`
	ActiveInstitutions int `json:"active_institutions"`
	VerificationRate   int `json:"verification_rate"`
	SystemHealth       int `json:"system_health"`
	TotalShares        int `json:"total_shares"`
	RevokedCredentials int `json:"revoked_credentials"`
}

// ChartPointResponse is one day of dashboard chart data.
type ChartPointResponse struct {
	Date     string `json:"date"`
	Issued   int    `json:"issued"`
	Verified int    `json:"verified"`
	Shared   int    `json:"shared"`
}

// ChatRequest is the JSON body for both chat endpoints.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply in markdown and sanitized HTML.
type ChatResponse struct {
	Reply     string `json:"reply"`
	ReplyHTML string `json:"reply_html"`
}

// SuggestionsResponse lists the quick-start assistant questions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCredentialResponse converts a domain Credential to its JSON representation.
func toCredentialResponse(c model.Credential) CredentialResponse {
	return CredentialResponse{
		ID:                 c.ID,
		TokenID:            c.TokenID,
		StudentAddress:     c.StudentAddress,
		InstitutionName:    c.InstitutionName,
		InstitutionAddress: c.InstitutionAddress,
		Degree:             c.Degree,
		IPFSHash:           c.IPFSHash,
		IssueDate:          c.IssueDate.UTC().Format(time.RFC3339),
		Revoked:            c.Revoked,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toAuditEntryResponse converts a domain AuditLogEntry to its JSON representation.
func toAuditEntryResponse(e model.AuditLogEntry) AuditEntryResponse {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return AuditEntryResponse{
		ID:           e.ID,
		CredentialID: e.CredentialID,
		Action:       string(e.Action),
		ActorAddress: e.ActorAddress,
		Metadata:     metadata,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toChartPointResponse converts a domain ChartPoint to its JSON representation.
func toChartPointResponse(p model.ChartPoint) ChartPointResponse {
	return ChartPointResponse{
		Date:     p.Date,
		Issued:   p.Issued,
		Verified: p.Verified,
		Shared:   p.Shared,
	}
}
