package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/marketgate/internal/models"
)

// FetchMany fans out queries across a bounded worker pool under the batch
// deadline. Every query gets an outcome: completed fetches report their
// real result, queries still pending at the deadline report a timeout, and
// a panicking fetch is contained to its own outcome.
func (s *Service) FetchMany(ctx context.Context, queries []models.Query) map[models.Query]models.FetchOutcome {
	results := make(map[models.Query]models.FetchOutcome, len(queries))
	if len(queries) == 0 {
		return results
	}

	batchID := uuid.New().String()[:8]
	batchCtx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	s.logger.Info().Str("batch", batchID).Int("queries", len(queries)).Msg("Starting batch fetch")

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.maxWorkers)
	)

	for _, query := range queries {
		wg.Add(1)
		go func(q models.Query) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Str("batch", batchID).Str("query", q.String()).Interface("panic", r).Msg("Fetch worker panicked")
					mu.Lock()
					results[q] = models.FetchOutcome{
						Query:     q,
						Status:    models.FetchExhausted,
						Reason:    fmt.Sprintf("internal error: %v", r),
						FetchedAt: s.clock(),
					}
					mu.Unlock()
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-batchCtx.Done():
				mu.Lock()
				results[q] = s.timedOut(q, nil)
				mu.Unlock()
				return
			}

			outcome := s.Fetch(batchCtx, q)
			mu.Lock()
			results[q] = outcome
			mu.Unlock()
		}(query)
	}

	wg.Wait()

	ok := 0
	for _, outcome := range results {
		if outcome.OK() {
			ok++
		}
	}
	s.logger.Info().Str("batch", batchID).Int("ok", ok).Int("total", len(queries)).Msg("Batch fetch complete")
	return results
}

// StartRefreshLoop runs the background refresh cycle until ctx is
// cancelled. Every checkEvery it re-fetches the watchlist kinds whose
// refresh interval has elapsed and reclaims expired cache entries.
func (s *Service) StartRefreshLoop(ctx context.Context, symbols []string, checkEvery time.Duration) {
	if checkEvery <= 0 {
		checkEvery = time.Minute
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("Refresh loop panicked")
			}
		}()

		ticker := time.NewTicker(checkEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("Refresh loop stopped")
				return
			case <-ticker.C:
				s.refreshDue(ctx, symbols)
			}
		}
	}()
}

// refreshDue fetches every symbol/kind pair whose interval has elapsed.
func (s *Service) refreshDue(ctx context.Context, symbols []string) {
	kinds := []models.DataKind{
		models.KindNews,
		models.KindFundamentals,
		models.KindFilings,
		models.KindAnalysis,
	}

	var due []models.Query
	for _, symbol := range symbols {
		for _, kind := range kinds {
			if s.scheduler.ShouldRefresh(symbol, kind) {
				due = append(due, models.Query{Symbol: symbol, Kind: kind})
			}
		}
	}
	if len(due) > 0 {
		s.logger.Debug().Int("due", len(due)).Msg("Background refresh cycle")
		s.FetchMany(ctx, due)
	}

	if removed, err := s.cache.InvalidateExpired(ctx); err == nil && removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Cache maintenance reclaimed entries")
	}
}
