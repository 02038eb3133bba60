package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"

	"github.com/google/uuid"
)

// Lifecycle owns delivery creation, driver assignment and status
// transitions. Guards are evaluated here against live store state, the
// commit itself is a store compare-and-set, and fan-out is signalled
// only after the commit succeeds.
type Lifecycle struct {
	Store    ports.EntityStore
	Notifier Notifier
}

func NewLifecycle(store ports.EntityStore, notifier Notifier) *Lifecycle {
	return &Lifecycle{Store: store, Notifier: notifier}
}

// CreateDelivery makes a new PENDING delivery. The customer must exist;
// the driver, when given, must exist. CustomerName is stamped from the
// customer record for display only.
func (l *Lifecycle) CreateDelivery(ctx context.Context, customerID string, driverID *string, origin, destination string) (*domain.Delivery, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return nil, domain.RejectedError{Reason: "origin and destination addresses are required"}
	}

	cust, err := l.Store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("create delivery: customer %s: %w", customerID, err)
	}

	if driverID != nil {
		if _, err := l.Store.GetDriver(ctx, *driverID); err != nil {
			return nil, fmt.Errorf("create delivery: driver %s: %w", *driverID, err)
		}
	}

	del := &domain.Delivery{
		ID:                 uuid.NewString(),
		CustomerID:         cust.ID,
		CustomerName:       cust.Name,
		DriverID:           driverID,
		OriginAddress:      origin,
		DestinationAddress: destination,
		Status:             domain.StatusPending,
		CreatedAt:          time.Now().UTC(),
	}
	if err := l.Store.CreateDelivery(ctx, del); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	l.Notifier.Notify(domain.KindDelivery, del.ID)
	return del, nil
}

// Transition moves a delivery to a new status.
//
// Legality comes from the transition table; the extra guards are:
// IN_PROGRESS needs an assigned driver with no other active delivery,
// DELIVERED needs a final position stamped atomically with the commit.
// The one-active guard is checked here for an early answer and enforced
// again inside the store commit, so concurrent starts for the same
// driver cannot both succeed. Guard violations are Rejected; store
// failures after the guards pass surface as TransitionFailedError, safe
// to retry since every guard re-evaluates against current state.
func (l *Lifecycle) Transition(ctx context.Context, deliveryID string, to domain.Status, final *domain.Position) (*domain.Delivery, error) {
	del, err := l.Store.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("transition delivery: %s: %w", deliveryID, err)
	}
	from := del.Status

	if err := domain.CanTransition(from, to); err != nil {
		return nil, err
	}

	switch to {
	case domain.StatusInProgress:
		if del.DriverID == nil {
			return nil, domain.RejectedError{Reason: "delivery has no driver assigned"}
		}
		active, err := l.Store.CountActiveDeliveries(ctx, *del.DriverID)
		if err != nil {
			return nil, domain.TransitionFailedError{Err: err}
		}
		if active > 0 {
			return nil, domain.RejectedError{Reason: fmt.Sprintf("driver %s already has an active delivery", *del.DriverID)}
		}
	case domain.StatusDelivered:
		if final == nil {
			return nil, domain.RejectedError{Reason: "final position is required to mark a delivery DELIVERED"}
		}
		if err := final.Validate(); err != nil {
			return nil, err
		}
	}

	updated, err := l.Store.TransitionDelivery(ctx, deliveryID, from, to, final)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("transition delivery: %s: %w", deliveryID, err)
		}
		// The store re-checks the one-active guard inside the commit;
		// losing that race is a rejection, not a transient failure.
		var rej domain.RejectedError
		if errors.As(err, &rej) {
			return nil, rej
		}
		// Includes the compare-and-set miss when the status moved
		// underneath us; the caller may retry and re-run the guards.
		return nil, domain.TransitionFailedError{Err: err}
	}

	l.Notifier.Notify(domain.KindDelivery, deliveryID)
	return updated, nil
}

// AssignDriver attaches a driver to a PENDING, unassigned delivery.
// Reassignment always passes through UnassignDriver first; an existing
// assignment is never overwritten silently.
func (l *Lifecycle) AssignDriver(ctx context.Context, deliveryID, driverID string) (*domain.Delivery, error) {
	if _, err := l.Store.GetDriver(ctx, driverID); err != nil {
		return nil, fmt.Errorf("assign driver: %s: %w", driverID, err)
	}

	updated, err := l.Store.AssignDriver(ctx, deliveryID, driverID)
	if err != nil {
		return nil, fmt.Errorf("assign driver: delivery %s: %w", deliveryID, err)
	}

	l.Notifier.Notify(domain.KindDelivery, deliveryID)
	return updated, nil
}

// UnassignDriver detaches the driver from a PENDING delivery.
func (l *Lifecycle) UnassignDriver(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	updated, err := l.Store.UnassignDriver(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("unassign driver: delivery %s: %w", deliveryID, err)
	}

	l.Notifier.Notify(domain.KindDelivery, deliveryID)
	return updated, nil
}
