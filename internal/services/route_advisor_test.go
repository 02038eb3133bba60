package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-tracker-service/internal/adapters/geo"
	"delivery-tracker-service/internal/domain"
)

func TestRouteOverview(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	err := store.CreateDelivery(ctx, &domain.Delivery{
		ID:                 "del-1",
		CustomerID:         "cus-1",
		OriginAddress:      "Jl. Merdeka Barat 12",
		DestinationAddress: "Jl. Thamrin 5",
		Status:             domain.StatusPending,
		CreatedAt:          time.Now(),
	})
	if err != nil {
		t.Fatalf("seed delivery: %v", err)
	}

	mock := geo.NewMockProvider(map[string]domain.Position{
		"Jl. Merdeka Barat 12": {Lat: -6.1754, Lng: 106.8272},
		"Jl. Thamrin 5":        {Lat: -6.1931, Lng: 106.8236},
	})
	advisor := NewRouteAdvisor(store, mock, mock)

	ov, err := advisor.Overview(ctx, "del-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.Origin.Lat != -6.1754 || ov.Destination.Lat != -6.1931 {
		t.Fatalf("endpoints = %+v -> %+v", ov.Origin, ov.Destination)
	}
	if ov.Route.DistanceMeters <= 0 || ov.Route.DurationSeconds <= 0 {
		t.Fatalf("route metrics = %+v", ov.Route)
	}
	if len(ov.Route.Geometry) < 2 {
		t.Fatalf("geometry has %d points", len(ov.Route.Geometry))
	}
}

func TestRouteOverviewUnknownDelivery(t *testing.T) {
	store := seedStore(t)
	mock := geo.NewMockProvider(nil)
	advisor := NewRouteAdvisor(store, mock, mock)

	_, err := advisor.Overview(context.Background(), "del-missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
