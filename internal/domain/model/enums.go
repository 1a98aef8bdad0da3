package model

// AuditAction identifies the kind of action recorded in an audit log entry.
type AuditAction string

const (
	ActionIssued   AuditAction = "issued"
	ActionShared   AuditAction = "shared"
	ActionVerified AuditAction = "verified"
	ActionRevoked  AuditAction = "revoked"
)

// ChartRange selects the window of the dashboard activity chart.
type ChartRange string

const (
	RangeWeek  ChartRange = "week"
	RangeMonth ChartRange = "month"
	RangeYear  ChartRange = "year"
)

// Days returns the number of trailing days covered by the range.
func (r ChartRange) Days() int {
	switch r {
	case RangeMonth:
		return 30
	case RangeYear:
		return 365
	default:
		return 7
	}
}
