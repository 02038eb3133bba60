package geo

import (
	"context"
	"fmt"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

// MockProvider serves geocode and route lookups from a fixed table.
// Used in tests and in the no-API-key demo mode.
type MockProvider struct {
	positions map[string]domain.Position
}

func NewMockProvider(positions map[string]domain.Position) *MockProvider {
	m := make(map[string]domain.Position, len(positions))
	for addr, pos := range positions {
		m[addr] = pos
	}
	return &MockProvider{positions: m}
}

func (p *MockProvider) Geocode(ctx context.Context, address string) (domain.Position, error) {
	pos, ok := p.positions[address]
	if !ok {
		return domain.Position{}, fmt.Errorf("geocode: no results for %q", address)
	}
	return pos, nil
}

// Route draws a straight two-point line between the endpoints with
// crow-flight metrics. Good enough for advisory display in demo mode.
func (p *MockProvider) Route(ctx context.Context, origin, destination domain.Position) (ports.RouteResult, error) {
	meters := int(haversineMeters(origin, destination))
	return ports.RouteResult{
		DistanceMeters: meters,
		// Assume city traffic at roughly 30 km/h.
		DurationSeconds: meters * 3600 / 30000,
		Geometry:        [][]float64{origin.CoordsToList(), destination.CoordsToList()},
	}, nil
}
