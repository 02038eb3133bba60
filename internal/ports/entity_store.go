package ports

import (
	"context"
	"delivery-tracker-service/internal/domain"
	"time"
)

// Partial update payloads. Nil fields are left untouched; mutations are
// atomic per entity (field-level last-writer-wins per call).
type DriverUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type CustomerUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type AdminUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type DeliveryUpdate struct {
	OriginAddress      *string
	DestinationAddress *string
}

// DeliveryFilter narrows ListDeliveries. Nil fields match everything.
type DeliveryFilter struct {
	CustomerID *string
	DriverID   *string
	Status     *domain.Status
}

// Port: a boundary for the canonical entity collections. The store is
// the single source of truth; every other component holds ids only and
// re-fetches state through it.
type EntityStore interface {
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
	ListDrivers(ctx context.Context) ([]*domain.Driver, error)
	CreateDriver(ctx context.Context, d *domain.Driver) error
	UpdateDriver(ctx context.Context, id string, upd DriverUpdate) (*domain.Driver, error)
	// DeleteDriver fails with a RejectedError while any non-terminal
	// delivery still references the driver.
	DeleteDriver(ctx context.Context, id string) error
	// UpdateDriverPosition applies a position report only when observedAt
	// is newer than the stored observation. Returns whether it applied.
	UpdateDriverPosition(ctx context.Context, id string, pos domain.Position, observedAt time.Time) (bool, error)

	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	UpdateCustomer(ctx context.Context, id string, upd CustomerUpdate) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	GetAdmin(ctx context.Context, id string) (*domain.Admin, error)
	ListAdmins(ctx context.Context) ([]*domain.Admin, error)
	CreateAdmin(ctx context.Context, a *domain.Admin) error
	UpdateAdmin(ctx context.Context, id string, upd AdminUpdate) (*domain.Admin, error)
	DeleteAdmin(ctx context.Context, id string) error

	GetDelivery(ctx context.Context, id string) (*domain.Delivery, error)
	ListDeliveries(ctx context.Context, f DeliveryFilter) ([]*domain.Delivery, error)
	CreateDelivery(ctx context.Context, d *domain.Delivery) error
	UpdateDelivery(ctx context.Context, id string, upd DeliveryUpdate) (*domain.Delivery, error)
	DeleteDelivery(ctx context.Context, id string) error

	// TransitionDelivery is a compare-and-set on status: it commits only
	// when the current status still equals from, stamping final atomically
	// with a DELIVERED commit. A CAS miss surfaces as an error the caller
	// wraps as retryable.
	TransitionDelivery(ctx context.Context, id string, from, to domain.Status, final *domain.Position) (*domain.Delivery, error)
	// CountActiveDeliveries reports how many IN_PROGRESS deliveries
	// reference the driver.
	CountActiveDeliveries(ctx context.Context, driverID string) (int, error)
	// AssignDriver attaches a driver to an unassigned delivery; a delivery
	// already holding a driver is never overwritten silently.
	AssignDriver(ctx context.Context, deliveryID, driverID string) (*domain.Delivery, error)
	UnassignDriver(ctx context.Context, deliveryID string) (*domain.Delivery, error)
}
