package fetcher

import (
	"errors"
	"sync"
	"time"
)

// Request window for quota-limited providers.
const windowSpan = 24 * time.Hour

// ErrRateLimited is returned when a provider's in-flight cap or rolling
// window quota is exhausted. Rejection is immediate, never queued.
var ErrRateLimited = errors.New("provider rate limit exceeded")

// providerThrottle holds one provider's limits and usage.
type providerThrottle struct {
	maxInFlight int
	windowLimit int

	inFlight int
	history  []time.Time // admission timestamps inside the window
}

// Throttle enforces per-provider concurrency caps and rolling 24 hour
// request quotas. Calls that would exceed either limit are rejected
// immediately so the orchestrator can move to the next provider.
type Throttle struct {
	mu        sync.Mutex
	providers map[string]*providerThrottle
	clock     func() time.Time
}

// NewThrottle creates an empty throttle. Providers are registered with
// their limits before use; unregistered providers are unlimited.
func NewThrottle() *Throttle {
	return &Throttle{
		providers: make(map[string]*providerThrottle),
		clock:     time.Now,
	}
}

// Register sets the limits for a provider. A zero maxInFlight or
// windowLimit means that limit is not enforced.
func (t *Throttle) Register(name string, maxInFlight, windowLimit int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.providers[name] = &providerThrottle{
		maxInFlight: maxInFlight,
		windowLimit: windowLimit,
	}
}

// Acquire admits one request for the provider or rejects it with
// ErrRateLimited. Every successful Acquire must be paired with Release.
func (t *Throttle) Acquire(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pt, ok := t.providers[name]
	if !ok {
		return nil
	}

	now := t.clock()
	pt.prune(now)

	if pt.maxInFlight > 0 && pt.inFlight >= pt.maxInFlight {
		return ErrRateLimited
	}
	if pt.windowLimit > 0 && len(pt.history) >= pt.windowLimit {
		return ErrRateLimited
	}

	pt.inFlight++
	if pt.windowLimit > 0 {
		pt.history = append(pt.history, now)
	}
	return nil
}

// Release returns one in-flight slot for the provider. The window entry
// stays; quota counts admissions, not completions.
func (t *Throttle) Release(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pt, ok := t.providers[name]
	if !ok {
		return
	}
	if pt.inFlight > 0 {
		pt.inFlight--
	}
}

// Remaining reports how many window admissions the provider has left.
// Unlimited providers report -1.
func (t *Throttle) Remaining(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	pt, ok := t.providers[name]
	if !ok || pt.windowLimit == 0 {
		return -1
	}
	pt.prune(t.clock())
	return pt.windowLimit - len(pt.history)
}

// prune drops admission timestamps that have aged out of the window.
func (pt *providerThrottle) prune(now time.Time) {
	cutoff := now.Add(-windowSpan)
	i := 0
	for i < len(pt.history) && !pt.history[i].After(cutoff) {
		i++
	}
	if i > 0 {
		pt.history = pt.history[i:]
	}
}
