package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/marketgate/internal/models"
)

func TestScheduler_UnseenPairIsDue(t *testing.T) {
	s := NewRefreshScheduler()
	assert.True(t, s.ShouldRefresh("7203", models.KindNews))
}

func TestScheduler_IntervalsPerKind(t *testing.T) {
	s := NewRefreshScheduler()
	base := time.Now()
	s.clock = func() time.Time { return base }

	kinds := []struct {
		kind     models.DataKind
		interval time.Duration
	}{
		{models.KindNews, 30 * time.Minute},
		{models.KindFundamentals, 60 * time.Minute},
		{models.KindFilings, 120 * time.Minute},
		{models.KindAnalysis, 30 * time.Minute},
		{models.KindComprehensive, 15 * time.Minute},
	}

	for _, tc := range kinds {
		s.MarkRefreshed("7203", tc.kind)

		s.clock = func() time.Time { return base.Add(tc.interval - time.Second) }
		assert.False(t, s.ShouldRefresh("7203", tc.kind), "%s due too early", tc.kind)

		s.clock = func() time.Time { return base.Add(tc.interval) }
		assert.True(t, s.ShouldRefresh("7203", tc.kind), "%s not due at interval", tc.kind)

		s.clock = func() time.Time { return base }
	}
}

func TestScheduler_PairsAreIndependent(t *testing.T) {
	s := NewRefreshScheduler()
	base := time.Now()
	s.clock = func() time.Time { return base }

	s.MarkRefreshed("7203", models.KindNews)

	assert.False(t, s.ShouldRefresh("7203", models.KindNews))
	assert.True(t, s.ShouldRefresh("7203", models.KindFundamentals), "other kinds unaffected")
	assert.True(t, s.ShouldRefresh("6758", models.KindNews), "other symbols unaffected")
}

func TestScheduler_KindWithoutIntervalAlwaysDue(t *testing.T) {
	s := NewRefreshScheduler()
	s.MarkRefreshed("7203", models.KindPrices)
	assert.True(t, s.ShouldRefresh("7203", models.KindPrices))
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 30*time.Minute, Interval(models.KindNews))
	assert.Equal(t, time.Duration(0), Interval(models.KindPrices))
}
