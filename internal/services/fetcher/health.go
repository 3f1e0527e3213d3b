package fetcher

import (
	"sync"
	"time"

	"github.com/bobmcallan/marketgate/internal/models"
)

// EMA smoothing factor for success rate and response time.
const healthAlpha = 0.1

// providerHealth is the mutable health state for one provider.
type providerHealth struct {
	successRate float64
	responseMS  float64
	lastCheck   time.Time
	observed    bool
}

// HealthTracker maintains an exponential moving average of each provider's
// success rate and response time. Safe for concurrent use.
type HealthTracker struct {
	mu        sync.Mutex
	providers map[string]*providerHealth
	clock     func() time.Time
}

// NewHealthTracker creates an empty tracker. Providers start at a success
// rate of 1.0 on their first observation.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		providers: make(map[string]*providerHealth),
		clock:     time.Now,
	}
}

func (h *HealthTracker) state(name string) *providerHealth {
	ph, ok := h.providers[name]
	if !ok {
		ph = &providerHealth{successRate: 1.0}
		h.providers[name] = ph
	}
	return ph
}

// RecordSuccess folds a successful call and its latency into the EMA.
func (h *HealthTracker) RecordSuccess(name string, latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph := h.state(name)
	ms := float64(latency.Milliseconds())
	if !ph.observed {
		ph.successRate = 1.0
		ph.responseMS = ms
		ph.observed = true
	} else {
		ph.successRate = (1-healthAlpha)*ph.successRate + healthAlpha*1.0
		ph.responseMS = (1-healthAlpha)*ph.responseMS + healthAlpha*ms
	}
	ph.lastCheck = h.clock()
}

// RecordFailure folds a failed call into the EMA.
func (h *HealthTracker) RecordFailure(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph := h.state(name)
	if !ph.observed {
		ph.successRate = 0.0
		ph.observed = true
	} else {
		ph.successRate = (1 - healthAlpha) * ph.successRate
	}
	ph.lastCheck = h.clock()
}

// Snapshot returns the current health figures for the provider. A provider
// never observed reports a success rate of 1.0 and online status.
func (h *HealthTracker) Snapshot(name string) (successRate, responseMS float64, status models.ProviderStatus, lastCheck time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph, ok := h.providers[name]
	if !ok {
		return 1.0, 0, models.ProviderOnline, time.Time{}
	}
	return ph.successRate, ph.responseMS, statusFor(ph.successRate), ph.lastCheck
}

// statusFor derives a coarse status from the success rate.
func statusFor(successRate float64) models.ProviderStatus {
	switch {
	case successRate >= 0.8:
		return models.ProviderOnline
	case successRate >= 0.5:
		return models.ProviderDegraded
	default:
		return models.ProviderOffline
	}
}
