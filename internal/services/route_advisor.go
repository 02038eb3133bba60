package services

import (
	"context"
	"fmt"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

// RouteAdvisor resolves a delivery's addresses through the external
// geocoding oracle and fetches an advisory route for display. Purely
// advisory: lifecycle correctness never depends on a route being
// available.
type RouteAdvisor struct {
	Store      ports.EntityStore
	Geocoder   ports.Geocoder
	Directions ports.DirectionsProvider
}

func NewRouteAdvisor(store ports.EntityStore, geocoder ports.Geocoder, directions ports.DirectionsProvider) *RouteAdvisor {
	return &RouteAdvisor{Store: store, Geocoder: geocoder, Directions: directions}
}

// RouteOverview is the display payload for one delivery's planned trip.
type RouteOverview struct {
	Origin      domain.Position
	Destination domain.Position
	Route       ports.RouteResult
}

// Overview geocodes both endpoints of a delivery and fetches the route
// between them.
func (a *RouteAdvisor) Overview(ctx context.Context, deliveryID string) (*RouteOverview, error) {
	del, err := a.Store.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("route overview: delivery %s: %w", deliveryID, err)
	}

	origin, err := a.Geocoder.Geocode(ctx, del.OriginAddress)
	if err != nil {
		return nil, fmt.Errorf("route overview: geocode origin %q: %w", del.OriginAddress, err)
	}

	dest, err := a.Geocoder.Geocode(ctx, del.DestinationAddress)
	if err != nil {
		return nil, fmt.Errorf("route overview: geocode destination %q: %w", del.DestinationAddress, err)
	}

	route, err := a.Directions.Route(ctx, origin, dest)
	if err != nil {
		return nil, fmt.Errorf("route overview: route for delivery %s: %w", deliveryID, err)
	}

	return &RouteOverview{Origin: origin, Destination: dest, Route: route}, nil
}
