package application

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
)

// Health scores reported by the dashboard. The ledger probe only degrades the
// score, never fails the endpoint: the dashboard stays usable when the chain
// RPC is down.
const (
	healthLedgerOK       = 98
	healthLedgerDegraded = 75
	healthNoLedger       = 85
)

// DashboardService aggregates platform-wide activity for the operations
// dashboard. Like the registry, it degrades to zero values on store failure
// instead of surfacing errors.
type DashboardService struct {
	credentials driven.CredentialStore
	shares      driven.ShareStore
	audits      driven.AuditLogStore
	ledger      driven.LedgerClient // nil when no ledger endpoint is configured.
	logger      *slog.Logger

	now func() time.Time
}

// NewDashboardService creates a DashboardService. ledger may be nil.
func NewDashboardService(
	credentials driven.CredentialStore,
	shares driven.ShareStore,
	audits driven.AuditLogStore,
	ledger driven.LedgerClient,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		credentials: credentials,
		shares:      shares,
		audits:      audits,
		ledger:      ledger,
		logger:      logger,
		now:         time.Now,
	}
}

// Stats assembles the dashboard counters. Individual store failures zero the
// affected counters; the method itself never fails.
func (s *DashboardService) Stats(ctx context.Context) model.DashboardStats {
	var stats model.DashboardStats

	creds, err := s.credentials.ListAll(ctx)
	if err != nil {
		s.logger.Error("dashboard credential fetch failed", "error", err)
		creds = nil
	}

	entries, err := s.audits.ListAll(ctx)
	if err != nil {
		s.logger.Error("dashboard audit fetch failed", "error", err)
		entries = nil
	}

	shareCount, err := s.shares.CountAll(ctx)
	if err != nil {
		s.logger.Error("dashboard share count failed", "error", err)
		shareCount = 0
	}

	institutions := make(map[string]struct{})
	for _, c := range creds {
		institutions[c.InstitutionAddress] = struct{}{}
		if c.Revoked {
			stats.RevokedCredentials++
		}
	}

	verifications := 0
	for _, e := range entries {
		if e.Action == model.ActionVerified {
			verifications++
		}
	}

	stats.TotalCredentials = len(creds)
	stats.ActiveInstitutions = len(institutions)
	stats.TotalShares = shareCount
	if len(creds) > 0 {
		stats.VerificationRate = int(math.Round(float64(verifications) / float64(len(creds)) * 100))
	}
	stats.SystemHealth = s.systemHealth(ctx)

	return stats
}

// systemHealth derives a coarse health score from the ledger probe.
func (s *DashboardService) systemHealth(ctx context.Context) int {
	if s.ledger == nil {
		return healthNoLedger
	}

	if _, err := s.ledger.Owner(ctx); err != nil {
		s.logger.Warn("ledger probe failed", "error", err)
		return healthLedgerDegraded
	}

	return healthLedgerOK
}

// ChartSeries produces per-day issued/verified/shared counts over the
// requested range, oldest day first. Store failures yield an all-zero series.
func (s *DashboardService) ChartSeries(ctx context.Context, r model.ChartRange) []model.ChartPoint {
	creds, err := s.credentials.ListAll(ctx)
	if err != nil {
		s.logger.Error("chart credential fetch failed", "error", err)
		creds = nil
	}

	entries, err := s.audits.ListAll(ctx)
	if err != nil {
		s.logger.Error("chart audit fetch failed", "error", err)
		entries = nil
	}

	issuedByDay := make(map[string]int)
	for _, c := range creds {
		issuedByDay[c.IssueDate.UTC().Format("2006-01-02")]++
	}

	verifiedByDay := make(map[string]int)
	sharedByDay := make(map[string]int)
	for _, e := range entries {
		day := e.CreatedAt.UTC().Format("2006-01-02")
		switch e.Action {
		case model.ActionVerified:
			verifiedByDay[day]++
		case model.ActionShared:
			sharedByDay[day]++
		}
	}

	days := r.Days()
	now := s.now().UTC()
	points := make([]model.ChartPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		day := date.Format("2006-01-02")

		label := day[5:]
		if r == model.RangeYear {
			label = date.Format("Jan")
		}

		points = append(points, model.ChartPoint{
			Date:     label,
			Issued:   issuedByDay[day],
			Verified: verifiedByDay[day],
			Shared:   sharedByDay[day],
		})
	}

	return points
}
