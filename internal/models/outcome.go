package models

import "time"

// FetchStatus classifies the terminal result of one query's orchestration.
type FetchStatus string

const (
	// FetchOK means a validated payload was returned, from cache or live.
	FetchOK FetchStatus = "ok"
	// FetchExhausted means every provider in the chain failed or was rejected.
	FetchExhausted FetchStatus = "exhausted"
	// FetchTimedOut means the query was still pending when the batch
	// deadline elapsed.
	FetchTimedOut FetchStatus = "timeout"
)

// FetchOutcome is the typed result of one fetch. Callers always receive a
// complete outcome per query, never a raised error.
type FetchOutcome struct {
	Query      Query       `json:"query"`
	Status     FetchStatus `json:"status"`
	Dataset    *Dataset    `json:"dataset,omitempty"`
	Provider   string      `json:"provider,omitempty"` // which provider served the data
	FromCache  bool        `json:"from_cache"`
	Confidence float64     `json:"confidence,omitempty"`
	Reason     string      `json:"reason,omitempty"` // failure detail for non-OK statuses
	FetchedAt  time.Time   `json:"fetched_at"`
}

// OK reports whether the outcome carries a usable dataset.
func (o FetchOutcome) OK() bool {
	return o.Status == FetchOK && o.Dataset != nil
}

// Provenance returns a human-readable origin tag like "stooq, live" or
// "cache".
func (o FetchOutcome) Provenance() string {
	if o.FromCache {
		return "cache"
	}
	if o.Provider != "" {
		return o.Provider + ", live"
	}
	return "unavailable"
}

// TechnicalSignals is the indicator set derived from a daily bar series.
type TechnicalSignals struct {
	Close      float64 `json:"close"`
	SMA20      float64 `json:"sma_20"`
	SMA50      float64 `json:"sma_50"`
	RSI14      float64 `json:"rsi_14"`
	RSIState   string  `json:"rsi_state"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	PeriodHigh float64 `json:"period_high"`
	PeriodLow  float64 `json:"period_low"`
	AvgVolume  int64   `json:"avg_volume"`
	Crossover  string  `json:"crossover"`
	Trend      string  `json:"trend"`
}

// SentimentSummary aggregates keyword sentiment across news sources.
type SentimentSummary struct {
	Overall   float64 `json:"overall"`
	Label     string  `json:"label"`
	NewsCount int     `json:"news_count"`
}

// ComprehensiveData is the per-kind composite view for one symbol. Each
// component carries its own provenance; missing components were unavailable
// from every source.
type ComprehensiveData struct {
	Symbol      string            `json:"symbol"`
	Prices      *FetchOutcome     `json:"prices,omitempty"`
	News        *FetchOutcome     `json:"news,omitempty"`
	Fundamental *FetchOutcome     `json:"fundamentals,omitempty"`
	Filings     *FetchOutcome     `json:"filings,omitempty"`
	Analysis    *FetchOutcome     `json:"analysis,omitempty"`
	Technical   *TechnicalSignals `json:"technical,omitempty"`
	Sentiment   *SentimentSummary `json:"sentiment,omitempty"`
	LastUpdated time.Time         `json:"last_updated"`
}
