package fetcher

import (
	"sync"
	"time"

	"github.com/bobmcallan/marketgate/internal/models"
)

// Per-kind refresh intervals. Faster-moving data refreshes more often.
var refreshIntervals = map[models.DataKind]time.Duration{
	models.KindNews:          30 * time.Minute,
	models.KindFundamentals:  60 * time.Minute,
	models.KindFilings:       120 * time.Minute,
	models.KindAnalysis:      30 * time.Minute,
	models.KindComprehensive: 15 * time.Minute,
}

type refreshKey struct {
	symbol string
	kind   models.DataKind
}

// RefreshScheduler tracks when each symbol/kind pair was last refreshed
// and decides when a refresh is due. Safe for concurrent use.
type RefreshScheduler struct {
	mu    sync.Mutex
	last  map[refreshKey]time.Time
	clock func() time.Time
}

// NewRefreshScheduler creates an empty scheduler. Every pair is initially
// due for refresh.
func NewRefreshScheduler() *RefreshScheduler {
	return &RefreshScheduler{
		last:  make(map[refreshKey]time.Time),
		clock: time.Now,
	}
}

// ShouldRefresh reports whether the symbol/kind pair is due. Pairs never
// marked refreshed are always due; kinds without a configured interval
// refresh every time.
func (s *RefreshScheduler) ShouldRefresh(symbol string, kind models.DataKind) bool {
	interval, ok := refreshIntervals[kind]
	if !ok {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.last[refreshKey{symbol, kind}]
	if !ok {
		return true
	}
	return s.clock().Sub(last) >= interval
}

// MarkRefreshed records a completed refresh for the symbol/kind pair.
func (s *RefreshScheduler) MarkRefreshed(symbol string, kind models.DataKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[refreshKey{symbol, kind}] = s.clock()
}

// Interval returns the configured refresh interval for a kind, or zero
// when the kind always refreshes.
func Interval(kind models.DataKind) time.Duration {
	return refreshIntervals[kind]
}
