// Package interfaces defines service contracts for marketgate
package interfaces

import (
	"context"

	"github.com/bobmcallan/marketgate/internal/models"
)

// ProviderClient is implemented by each external data source client. The
// orchestrator only sees this interface; wire protocols stay inside the
// client packages.
type ProviderClient interface {
	// Name returns the provider's identity, matching its descriptor.
	Name() string

	// Fetch retrieves a raw dataset for the query. Implementations must
	// honor ctx cancellation and return an error on any transport or
	// decode failure, never a partial dataset alongside an error.
	Fetch(ctx context.Context, query models.Query) (*models.Dataset, error)
}
