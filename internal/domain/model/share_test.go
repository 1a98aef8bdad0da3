package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShareExpired(t *testing.T) {
	expiresAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	share := Share{ExpiresAt: expiresAt}

	assert.False(t, share.Expired(expiresAt.Add(-time.Second)))
	assert.True(t, share.Expired(expiresAt), "a share expires exactly at its deadline")
	assert.True(t, share.Expired(expiresAt.Add(time.Second)))
}

func TestChartRangeDays(t *testing.T) {
	assert.Equal(t, 7, RangeWeek.Days())
	assert.Equal(t, 30, RangeMonth.Days())
	assert.Equal(t, 365, RangeYear.Days())
	assert.Equal(t, 7, ChartRange("bogus").Days(), "unknown ranges fall back to a week")
}
