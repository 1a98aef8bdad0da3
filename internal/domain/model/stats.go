package model

// InstitutionStats aggregates issuance activity for one institution.
// RecentIssued counts credentials issued within the trailing calendar month.
type InstitutionStats struct {
	TotalIssued  int
	TotalRevoked int
	RecentIssued int
}

// DashboardStats is the platform-wide view shown on the operations dashboard.
type DashboardStats struct {
	TotalCredentials   int
	ActiveInstitutions int
	VerificationRate   int // Percentage, rounded.
	SystemHealth       int
	TotalShares        int
	RevokedCredentials int
}

// ChartPoint is one day's activity in the dashboard chart.
type ChartPoint struct {
	Date     string // "01-02" day label, or "Jan" for the year range.
	Issued   int
	Verified int
	Shared   int
}
