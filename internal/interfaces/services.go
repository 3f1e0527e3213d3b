package interfaces

import (
	"context"

	"github.com/bobmcallan/marketgate/internal/models"
)

// FetchService is the surface exposed to consumers (dashboards, report
// generators, alerting). Every call returns typed outcomes; no method
// surfaces provider errors directly.
type FetchService interface {
	// FetchStockData runs the fallback chain for one symbol's price series.
	FetchStockData(ctx context.Context, symbol, period string) models.FetchOutcome

	// Fetch runs the fallback chain for an arbitrary query.
	Fetch(ctx context.Context, query models.Query) models.FetchOutcome

	// FetchMany fans out queries with bounded concurrency under a batch
	// deadline, preserving partial success.
	FetchMany(ctx context.Context, queries []models.Query) map[models.Query]models.FetchOutcome

	// FetchComprehensive assembles the per-kind composite for a symbol,
	// refreshing only the kinds the scheduler reports as stale.
	FetchComprehensive(ctx context.Context, symbol string) *models.ComprehensiveData

	// SourceStatus returns a snapshot of every provider descriptor with
	// current health figures.
	SourceStatus() []models.ProviderDescriptor

	// ValidationSummary aggregates the rolling validation history.
	ValidationSummary() models.ValidationSummary
}
