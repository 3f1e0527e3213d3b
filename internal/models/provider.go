package models

import "time"

// ProviderStatus is the operational state of a data provider.
type ProviderStatus string

const (
	ProviderOnline      ProviderStatus = "online"
	ProviderDegraded    ProviderStatus = "degraded"
	ProviderOffline     ProviderStatus = "offline"
	ProviderMaintenance ProviderStatus = "maintenance"
)

// ProviderDescriptor describes a data provider's identity, priority and
// health. Owned by the fallback orchestrator; health fields are updated by
// the health tracker after each attempt and take effect on the next call.
type ProviderDescriptor struct {
	Name        string         `json:"name"`
	Kinds       []DataKind     `json:"kinds"`
	Priority    int            `json:"priority"` // lower = tried earlier
	Status      ProviderStatus `json:"status"`
	Timeout     time.Duration  `json:"timeout"`
	MaxRetries  int            `json:"max_retries"`
	SuccessRate float64        `json:"success_rate"`  // exponential moving average
	ResponseMS  float64        `json:"response_ms"`   // EMA of call latency
	WindowLimit int            `json:"window_limit"`  // requests per rolling 24h, 0 = unlimited
	MaxInFlight int            `json:"max_in_flight"` // concurrent request cap, 0 = default
	RequiresKey bool           `json:"requires_key"`
	HasKey      bool           `json:"has_key"`
	LastCheck   time.Time      `json:"last_check"`
}

// Serves reports whether the provider can answer queries of the given kind.
func (d *ProviderDescriptor) Serves(kind DataKind) bool {
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidationResult scores a fetched dataset's internal consistency.
type ValidationResult struct {
	Valid           bool      `json:"valid"`
	Confidence      float64   `json:"confidence"` // in [0, 1]
	Inconsistencies []string  `json:"inconsistencies,omitempty"`
	Source          string    `json:"source"`
	Timestamp       time.Time `json:"timestamp"`
}

// ValidationSummary aggregates the rolling validation history.
type ValidationSummary struct {
	Total             int     `json:"total"`
	Valid             int     `json:"valid"`
	ValidityRate      float64 `json:"validity_rate"`
	AverageConfidence float64 `json:"average_confidence"`
}
