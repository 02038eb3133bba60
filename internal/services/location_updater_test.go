package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-tracker-service/internal/domain"
)

func TestReportPositionApplied(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	rec := &recorder{}
	u := NewLocationUpdater(store, rec)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := u.ReportPosition(ctx, "drv-1", domain.Position{Lat: -6.2, Lng: 106.8}, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	drv, err := store.GetDriver(ctx, "drv-1")
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	pos, ok := drv.Position()
	if !ok {
		t.Fatal("driver position still unset after accepted report")
	}
	if pos.Lat != -6.2 || pos.Lng != 106.8 {
		t.Fatalf("position = %+v", pos)
	}
	if rec.count() != 1 {
		t.Fatalf("notify count = %d, want 1", rec.count())
	}
}

func TestReportPositionStaleIgnored(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	rec := &recorder{}
	u := NewLocationUpdater(store, rec)

	newer := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-30 * time.Second)

	if err := u.ReportPosition(ctx, "drv-1", domain.Position{Lat: -6.2, Lng: 106.8}, newer); err != nil {
		t.Fatalf("first report: %v", err)
	}
	// Late network delivery of an older observation: accepted, no effect.
	if err := u.ReportPosition(ctx, "drv-1", domain.Position{Lat: 0, Lng: 0}, older); err != nil {
		t.Fatalf("stale report should be a no-op, got %v", err)
	}

	drv, _ := store.GetDriver(ctx, "drv-1")
	pos, _ := drv.Position()
	if pos.Lat != -6.2 || pos.Lng != 106.8 {
		t.Fatalf("stale report regressed the position: %+v", pos)
	}
	if rec.count() != 1 {
		t.Fatalf("notify count = %d, want 1 (stale report must not fan out)", rec.count())
	}
}

func TestReportPositionOutOfRange(t *testing.T) {
	store := seedStore(t)
	u := NewLocationUpdater(store, &recorder{})

	err := u.ReportPosition(context.Background(), "drv-1", domain.Position{Lat: 91, Lng: 0}, time.Now())
	var rej domain.RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("error = %v, want RejectedError", err)
	}
}

func TestReportPositionUnknownDriver(t *testing.T) {
	store := seedStore(t)
	u := NewLocationUpdater(store, &recorder{})

	err := u.ReportPosition(context.Background(), "drv-missing", domain.Position{Lat: 0, Lng: 0}, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestReportPositionDebounce(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	rec := &recorder{}
	u := NewLocationUpdater(store, rec)
	u.MinInterval = 5 * time.Second

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := u.ReportPosition(ctx, "drv-1", domain.Position{Lat: -6.2, Lng: 106.8}, base); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if err := u.ReportPosition(ctx, "drv-1", domain.Position{Lat: -6.3, Lng: 106.9}, base.Add(time.Second)); err != nil {
		t.Fatalf("debounced report should be a no-op, got %v", err)
	}

	drv, _ := store.GetDriver(ctx, "drv-1")
	pos, _ := drv.Position()
	if pos.Lat != -6.2 {
		t.Fatalf("debounced report reached the store: %+v", pos)
	}

	if err := u.ReportPosition(ctx, "drv-1", domain.Position{Lat: -6.3, Lng: 106.9}, base.Add(6*time.Second)); err != nil {
		t.Fatalf("post-interval report: %v", err)
	}
	drv, _ = store.GetDriver(ctx, "drv-1")
	pos, _ = drv.Position()
	if pos.Lat != -6.3 {
		t.Fatalf("post-interval report not applied: %+v", pos)
	}
	if rec.count() != 2 {
		t.Fatalf("notify count = %d, want 2", rec.count())
	}
}
