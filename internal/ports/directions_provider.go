package ports

import (
	"context"
	"delivery-tracker-service/internal/domain"
)

// Route geometry and travel metrics between two positions.
// Geometry is a GeoJSON-style LineString: a sequence of [lng, lat] pairs.
type RouteResult struct {
	DistanceMeters  int
	DurationSeconds int
	Geometry        [][]float64
}

// Contract for retrieving an advisory route between two positions.
// Advisory only: lifecycle correctness never depends on it.
type DirectionsProvider interface {
	Route(ctx context.Context, origin, destination domain.Position) (RouteResult, error)
}
