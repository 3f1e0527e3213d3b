// Package fetcher orchestrates multi-source market data acquisition with
// caching, validation, health tracking and rate limiting.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
	"github.com/bobmcallan/marketgate/internal/models"
	"github.com/bobmcallan/marketgate/internal/signals"
)

// Cache TTL for price series. Other kinds use their refresh interval.
const priceCacheTTL = 24 * time.Hour

// providerEntry pairs a client with its descriptor.
type providerEntry struct {
	client interfaces.ProviderClient
	desc   models.ProviderDescriptor
}

// Service is the fallback orchestrator. It resolves each query through the
// cache first, then walks the provider chain in priority order until a
// validated dataset is obtained or the chain is exhausted.
type Service struct {
	cache     interfaces.CacheStorage
	providers []providerEntry
	validator *Validator
	health    *HealthTracker
	throttle  *Throttle
	scheduler *RefreshScheduler
	logger    *common.Logger
	clock     func() time.Time

	maxWorkers   int
	batchTimeout time.Duration
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithProvider registers a provider client with its descriptor. Providers
// are tried in ascending priority order.
func WithProvider(client interfaces.ProviderClient, desc models.ProviderDescriptor) ServiceOption {
	return func(s *Service) {
		s.providers = append(s.providers, providerEntry{client: client, desc: desc})
	}
}

// WithEngine bounds the concurrent fetch engine.
func WithEngine(maxWorkers int, batchTimeout time.Duration) ServiceOption {
	return func(s *Service) {
		if maxWorkers > 0 {
			s.maxWorkers = maxWorkers
		}
		if batchTimeout > 0 {
			s.batchTimeout = batchTimeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the fetch service.
func NewService(cache interfaces.CacheStorage, opts ...ServiceOption) *Service {
	s := &Service{
		cache:        cache,
		validator:    NewValidator(),
		health:       NewHealthTracker(),
		throttle:     NewThrottle(),
		scheduler:    NewRefreshScheduler(),
		logger:       common.NewSilentLogger(),
		clock:        time.Now,
		maxWorkers:   5,
		batchTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	sort.SliceStable(s.providers, func(i, j int) bool {
		return s.providers[i].desc.Priority < s.providers[j].desc.Priority
	})
	for _, p := range s.providers {
		s.throttle.Register(p.desc.Name, p.desc.MaxInFlight, p.desc.WindowLimit)
	}

	return s
}

// FetchStockData runs the fallback chain for one symbol's price series.
func (s *Service) FetchStockData(ctx context.Context, symbol, period string) models.FetchOutcome {
	return s.Fetch(ctx, models.Query{Symbol: symbol, Kind: models.KindPrices, Period: period})
}

// Fetch resolves one query: cache first, then providers by priority. The
// returned outcome is always complete; failures are reported in Status and
// Reason, never as an error.
func (s *Service) Fetch(ctx context.Context, query models.Query) models.FetchOutcome {
	key := query.CacheKey(s.clock())

	if payload, ok := s.cache.Get(ctx, key); ok {
		var ds models.Dataset
		if err := json.Unmarshal(payload, &ds); err == nil {
			confidence, _ := scoreDataset(&ds)
			s.logger.Debug().Str("query", query.String()).Msg("Cache hit")
			return models.FetchOutcome{
				Query:      query,
				Status:     models.FetchOK,
				Dataset:    &ds,
				Provider:   ds.Source,
				FromCache:  true,
				Confidence: confidence,
				FetchedAt:  s.clock(),
			}
		}
		s.logger.Warn().Str("key", key).Msg("Corrupt cache payload, refetching")
	}

	var reasons []string
	for _, p := range s.providers {
		if !p.desc.Serves(query.Kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return s.timedOut(query, reasons)
		}
		if p.desc.RequiresKey && !p.desc.HasKey {
			// Missing credentials are a configuration gap, not a failure.
			s.logger.Debug().Str("provider", p.desc.Name).Msg("Skipping provider without API key")
			continue
		}
		if err := s.throttle.Acquire(p.desc.Name); err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: rate limited", p.desc.Name))
			s.logger.Warn().Str("provider", p.desc.Name).Str("query", query.String()).Msg("Provider rate limited, trying next")
			continue
		}

		ds, latency, err := s.attempt(ctx, p, query)
		s.throttle.Release(p.desc.Name)

		if err != nil {
			s.health.RecordFailure(p.desc.Name)
			reasons = append(reasons, fmt.Sprintf("%s: %v", p.desc.Name, err))
			s.logger.Warn().Err(err).Str("provider", p.desc.Name).Str("query", query.String()).Msg("Provider fetch failed")
			if ctx.Err() != nil {
				return s.timedOut(query, reasons)
			}
			continue
		}

		validation := s.validator.Validate(ds, p.desc.Name)
		if !validation.Valid {
			s.health.RecordFailure(p.desc.Name)
			reasons = append(reasons, fmt.Sprintf("%s: validation failed (confidence %.2f: %s)",
				p.desc.Name, validation.Confidence, strings.Join(validation.Inconsistencies, "; ")))
			s.logger.Warn().Str("provider", p.desc.Name).Float64("confidence", validation.Confidence).Msg("Dataset failed validation, trying next provider")
			continue
		}

		s.health.RecordSuccess(p.desc.Name, latency)
		if query.Kind == models.KindNews {
			AnnotateSentiment(ds.News)
		}
		s.storeInCache(ctx, key, query.Kind, ds)
		s.scheduler.MarkRefreshed(query.Symbol, query.Kind)

		s.logger.Info().Str("provider", p.desc.Name).Str("query", query.String()).Float64("confidence", validation.Confidence).Msg("Fetch succeeded")
		return models.FetchOutcome{
			Query:      query,
			Status:     models.FetchOK,
			Dataset:    ds,
			Provider:   p.desc.Name,
			Confidence: validation.Confidence,
			FetchedAt:  s.clock(),
		}
	}

	if ctx.Err() != nil {
		return s.timedOut(query, reasons)
	}

	reason := "no provider serves this data kind"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	s.logger.Error().Str("query", query.String()).Str("reason", reason).Msg("All providers exhausted")
	return models.FetchOutcome{
		Query:     query,
		Status:    models.FetchExhausted,
		Reason:    reason,
		FetchedAt: s.clock(),
	}
}

// attempt calls one provider with its timeout and retry budget.
func (s *Service) attempt(ctx context.Context, p providerEntry, query models.Query) (*models.Dataset, time.Duration, error) {
	timeout := p.desc.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.clock()
	var ds *models.Dataset

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(p.desc.MaxRetries)),
		callCtx,
	)
	err := backoff.Retry(func() error {
		var fetchErr error
		ds, fetchErr = p.client.Fetch(callCtx, query)
		return fetchErr
	}, policy)

	return ds, s.clock().Sub(start), err
}

func (s *Service) timedOut(query models.Query, reasons []string) models.FetchOutcome {
	reason := "deadline exceeded"
	if len(reasons) > 0 {
		reason = fmt.Sprintf("deadline exceeded after: %s", strings.Join(reasons, "; "))
	}
	return models.FetchOutcome{
		Query:     query,
		Status:    models.FetchTimedOut,
		Reason:    reason,
		FetchedAt: s.clock(),
	}
}

// storeInCache persists a fetched dataset. Write failures are logged by the
// store and do not affect the outcome.
func (s *Service) storeInCache(ctx context.Context, key string, kind models.DataKind, ds *models.Dataset) {
	payload, err := json.Marshal(ds)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode dataset for cache")
		return
	}
	ttl := Interval(kind)
	if ttl <= 0 {
		ttl = priceCacheTTL
	}
	_ = s.cache.Set(ctx, key, payload, ttl)
}

// FetchComprehensive assembles the per-kind composite for one symbol. Each
// component fetch runs through the normal fallback chain; failed components
// are carried with their failure reason rather than dropping the whole
// composite.
func (s *Service) FetchComprehensive(ctx context.Context, symbol string) *models.ComprehensiveData {
	queries := []models.Query{
		{Symbol: symbol, Kind: models.KindPrices, Period: "3mo"},
		{Symbol: symbol, Kind: models.KindNews},
		{Symbol: symbol, Kind: models.KindFundamentals},
		{Symbol: symbol, Kind: models.KindFilings},
		{Symbol: symbol, Kind: models.KindAnalysis},
	}

	results := s.FetchMany(ctx, queries)

	data := &models.ComprehensiveData{
		Symbol:      symbol,
		LastUpdated: s.clock(),
	}
	for _, q := range queries {
		outcome, ok := results[q]
		if !ok {
			continue
		}
		oc := outcome
		switch q.Kind {
		case models.KindPrices:
			data.Prices = &oc
			if oc.OK() {
				data.Technical = signals.Analyze(oc.Dataset.Bars)
			}
		case models.KindNews:
			data.News = &oc
			if oc.OK() {
				summary := AnnotateSentiment(oc.Dataset.News)
				data.Sentiment = &summary
			}
		case models.KindFundamentals:
			data.Fundamental = &oc
		case models.KindFilings:
			data.Filings = &oc
		case models.KindAnalysis:
			data.Analysis = &oc
		}
	}

	s.scheduler.MarkRefreshed(symbol, models.KindComprehensive)
	return data
}

// SourceStatus returns every provider descriptor with current health
// figures folded in.
func (s *Service) SourceStatus() []models.ProviderDescriptor {
	out := make([]models.ProviderDescriptor, 0, len(s.providers))
	for _, p := range s.providers {
		desc := p.desc
		successRate, responseMS, status, lastCheck := s.health.Snapshot(desc.Name)
		desc.SuccessRate = successRate
		desc.ResponseMS = responseMS
		desc.Status = status
		desc.LastCheck = lastCheck
		if desc.RequiresKey && !desc.HasKey {
			desc.Status = models.ProviderOffline
		}
		out = append(out, desc)
	}
	return out
}

// ValidationSummary aggregates the rolling validation history.
func (s *Service) ValidationSummary() models.ValidationSummary {
	return s.validator.Summary()
}

// Ensure Service implements the FetchService interface
var _ interfaces.FetchService = (*Service)(nil)
