package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

func newSeededStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateDriver(ctx, &domain.Driver{ID: "drv-1", Name: "Budi Santoso", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	if err := s.CreateCustomer(ctx, &domain.Customer{ID: "cus-1", Name: "Citra Lestari", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return s
}

func addDelivery(t *testing.T, s *MemoryStore, id string, driverID *string, status domain.Status, createdAt time.Time) {
	t.Helper()
	err := s.CreateDelivery(context.Background(), &domain.Delivery{
		ID:                 id,
		CustomerID:         "cus-1",
		CustomerName:       "Citra Lestari",
		DriverID:           driverID,
		OriginAddress:      "A",
		DestinationAddress: "B",
		Status:             status,
		CreatedAt:          createdAt,
	})
	if err != nil {
		t.Fatalf("seed delivery %s: %v", id, err)
	}
}

func TestDriverCRUD(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	drv, err := s.GetDriver(ctx, "drv-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if drv.Name != "Budi Santoso" {
		t.Fatalf("name = %q", drv.Name)
	}

	// Returned copies never alias store state.
	drv.Name = "mutated"
	again, _ := s.GetDriver(ctx, "drv-1")
	if again.Name != "Budi Santoso" {
		t.Fatal("caller mutation leaked into the store")
	}

	name := "Budi S."
	updated, err := s.UpdateDriver(ctx, "drv-1", ports.DriverUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Budi S." {
		t.Fatalf("updated name = %q", updated.Name)
	}

	if _, err := s.GetDriver(ctx, "drv-missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing driver error = %v", err)
	}

	if err := s.DeleteDriver(ctx, "drv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetDriver(ctx, "drv-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted driver still readable: %v", err)
	}
}

func TestDeleteDriverWithActiveDelivery(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	driverID := "drv-1"
	addDelivery(t, s, "del-1", &driverID, domain.StatusInProgress, time.Now())

	err := s.DeleteDriver(ctx, "drv-1")
	var rej domain.RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("error = %v, want RejectedError while a delivery references the driver", err)
	}

	// Terminal deliveries do not block deletion.
	if _, err := s.TransitionDelivery(ctx, "del-1", domain.StatusInProgress, domain.StatusCancelled, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.DeleteDriver(ctx, "drv-1"); err != nil {
		t.Fatalf("delete after cancel: %v", err)
	}
}

func TestUpdateDriverPositionStaleness(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	applied, err := s.UpdateDriverPosition(ctx, "drv-1", domain.Position{Lat: -6.2, Lng: 106.8}, t1)
	if err != nil || !applied {
		t.Fatalf("first report: applied=%v err=%v", applied, err)
	}

	// Same timestamp and older timestamps are both stale.
	applied, err = s.UpdateDriverPosition(ctx, "drv-1", domain.Position{Lat: 0, Lng: 0}, t1)
	if err != nil || applied {
		t.Fatalf("equal timestamp: applied=%v err=%v", applied, err)
	}
	applied, err = s.UpdateDriverPosition(ctx, "drv-1", domain.Position{Lat: 0, Lng: 0}, t1.Add(-time.Second))
	if err != nil || applied {
		t.Fatalf("older timestamp: applied=%v err=%v", applied, err)
	}

	drv, _ := s.GetDriver(ctx, "drv-1")
	pos, ok := drv.Position()
	if !ok || pos.Lat != -6.2 {
		t.Fatalf("position = %+v ok=%v", pos, ok)
	}

	if _, err := s.UpdateDriverPosition(ctx, "drv-missing", domain.Position{}, t1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing driver error = %v", err)
	}
}

func TestTransitionDeliveryCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	addDelivery(t, s, "del-1", nil, domain.StatusPending, time.Now())

	// Expected status no longer matches: the transition must fail, not apply.
	_, err := s.TransitionDelivery(ctx, "del-1", domain.StatusInProgress, domain.StatusDelivered, nil)
	if err == nil {
		t.Fatal("compare-and-set miss did not fail")
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("miss reported as not-found: %v", err)
	}
	if !strings.Contains(err.Error(), "expected") {
		t.Fatalf("error = %v", err)
	}

	del, _ := s.GetDelivery(ctx, "del-1")
	if del.Status != domain.StatusPending {
		t.Fatalf("status moved on a failed transition: %s", del.Status)
	}
}

func TestTransitionDeliverySecondActiveSameDriver(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	driverID := "drv-1"
	addDelivery(t, s, "del-1", &driverID, domain.StatusPending, time.Now())
	addDelivery(t, s, "del-2", &driverID, domain.StatusPending, time.Now())

	if _, err := s.TransitionDelivery(ctx, "del-1", domain.StatusPending, domain.StatusInProgress, nil); err != nil {
		t.Fatalf("start first: %v", err)
	}

	// The guard lives in the commit itself: even a caller that skipped
	// the count check cannot start a second delivery for the driver.
	_, err := s.TransitionDelivery(ctx, "del-2", domain.StatusPending, domain.StatusInProgress, nil)
	var rej domain.RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("error = %v, want RejectedError", err)
	}

	del, _ := s.GetDelivery(ctx, "del-2")
	if del.Status != domain.StatusPending {
		t.Fatalf("second delivery moved to %s on a rejected start", del.Status)
	}
	if n, _ := s.CountActiveDeliveries(ctx, "drv-1"); n != 1 {
		t.Fatalf("active count = %d, want 1", n)
	}
}

func TestAssignUnassignGuards(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	addDelivery(t, s, "del-1", nil, domain.StatusPending, time.Now())

	del, err := s.AssignDriver(ctx, "del-1", "drv-1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if del.DriverID == nil || *del.DriverID != "drv-1" {
		t.Fatalf("driver id = %v", del.DriverID)
	}

	var rej domain.RejectedError
	if _, err := s.AssignDriver(ctx, "del-1", "drv-1"); !errors.As(err, &rej) {
		t.Fatalf("double assign error = %v", err)
	}

	if _, err := s.TransitionDelivery(ctx, "del-1", domain.StatusPending, domain.StatusInProgress, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.UnassignDriver(ctx, "del-1"); !errors.As(err, &rej) {
		t.Fatalf("unassign while active error = %v", err)
	}
	if _, err := s.AssignDriver(ctx, "del-2", "drv-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing delivery error = %v", err)
	}
}

func TestListDeliveriesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	driverID := "drv-1"
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	addDelivery(t, s, "del-old", nil, domain.StatusPending, base)
	addDelivery(t, s, "del-mid", &driverID, domain.StatusInProgress, base.Add(time.Hour))
	addDelivery(t, s, "del-new", &driverID, domain.StatusPending, base.Add(2*time.Hour))

	all, err := s.ListDeliveries(ctx, ports.DeliveryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "del-new" || all[2].ID != "del-old" {
		t.Fatalf("listing not newest-first: %v", ids(all))
	}

	byDriver, _ := s.ListDeliveries(ctx, ports.DeliveryFilter{DriverID: &driverID})
	if len(byDriver) != 2 {
		t.Fatalf("driver filter returned %d, want 2", len(byDriver))
	}

	status := domain.StatusInProgress
	byStatus, _ := s.ListDeliveries(ctx, ports.DeliveryFilter{DriverID: &driverID, Status: &status})
	if len(byStatus) != 1 || byStatus[0].ID != "del-mid" {
		t.Fatalf("status filter = %v", ids(byStatus))
	}

	n, err := s.CountActiveDeliveries(ctx, "drv-1")
	if err != nil || n != 1 {
		t.Fatalf("active count = %d err=%v, want 1", n, err)
	}
}

func TestUpdateDeliveryTerminal(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	addDelivery(t, s, "del-1", nil, domain.StatusCancelled, time.Now())

	origin := "C"
	_, err := s.UpdateDelivery(ctx, "del-1", ports.DeliveryUpdate{OriginAddress: &origin})
	var rej domain.RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("error = %v, want RejectedError for terminal delivery", err)
	}
}

func ids(dels []*domain.Delivery) []string {
	out := make([]string, len(dels))
	for i, d := range dels {
		out[i] = d.ID
	}
	return out
}
