package ports

import (
	"context"
	"delivery-tracker-service/internal/domain"
)

// Contract for resolving a street address to coordinates.
// The resolution itself is an external oracle; the core only consumes it.
type Geocoder interface {
	// Return the best-match position for a free-text address.
	Geocode(ctx context.Context, address string) (domain.Position, error)
}
