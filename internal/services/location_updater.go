package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

// Notifier receives committed-mutation signals. Satisfied by the fan-out
// engine; tests substitute a recorder.
type Notifier interface {
	Notify(kind domain.Kind, id string)
}

// LocationUpdater validates and applies driver position reports.
//
// Driver agents are expected to report at a bounded rate (one report
// every 3-10 seconds); the updater does not rate-limit by itself, but an
// optional MinInterval debounce caps store-write amplification when an
// agent misbehaves.
type LocationUpdater struct {
	Store    ports.EntityStore
	Notifier Notifier

	// MinInterval drops reports arriving closer together than this per
	// driver (accepted no-op). Zero disables the debounce.
	MinInterval time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewLocationUpdater(store ports.EntityStore, notifier Notifier) *LocationUpdater {
	return &LocationUpdater{
		Store:    store,
		Notifier: notifier,
		lastSeen: make(map[string]time.Time),
	}
}

// ReportPosition applies one driver position report.
//
// Out-of-range coordinates are rejected and unknown drivers surface
// domain.ErrNotFound. A report older than the driver's stored
// observation is an accepted no-op: late network delivery must never
// regress the displayed position. Only an applied write signals fan-out.
func (u *LocationUpdater) ReportPosition(ctx context.Context, driverID string, pos domain.Position, observedAt time.Time) error {
	if err := pos.Validate(); err != nil {
		return err
	}

	if u.MinInterval > 0 && u.debounced(driverID, observedAt) {
		return nil
	}

	applied, err := u.Store.UpdateDriverPosition(ctx, driverID, pos, observedAt)
	if err != nil {
		return fmt.Errorf("report position: driver %s: %w", driverID, err)
	}
	if !applied {
		// Stale report, silently discarded.
		return nil
	}

	u.Notifier.Notify(domain.KindDriver, driverID)
	return nil
}

func (u *LocationUpdater) debounced(driverID string, observedAt time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if last, ok := u.lastSeen[driverID]; ok && observedAt.Sub(last) < u.MinInterval {
		return true
	}
	u.lastSeen[driverID] = observedAt
	return false
}
