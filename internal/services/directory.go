package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"

	"github.com/google/uuid"
)

// Directory is the CRUD surface over the person-shaped entities. It
// assigns ids, stamps creation times, and signals fan-out after every
// committed mutation so watchers see admin edits too.
type Directory struct {
	Store    ports.EntityStore
	Notifier Notifier
}

func NewDirectory(store ports.EntityStore, notifier Notifier) *Directory {
	return &Directory{Store: store, Notifier: notifier}
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.RejectedError{Reason: "name is required"}
	}
	return name, nil
}

// Drivers

func (d *Directory) CreateDriver(ctx context.Context, name string, contact domain.Contact) (*domain.Driver, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	drv := &domain.Driver{
		ID:        uuid.NewString(),
		Name:      name,
		Contact:   contact,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.Store.CreateDriver(ctx, drv); err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}

	d.Notifier.Notify(domain.KindDriver, drv.ID)
	return drv, nil
}

func (d *Directory) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	return d.Store.GetDriver(ctx, id)
}

func (d *Directory) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return d.Store.ListDrivers(ctx)
}

func (d *Directory) UpdateDriver(ctx context.Context, id string, upd ports.DriverUpdate) (*domain.Driver, error) {
	drv, err := d.Store.UpdateDriver(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update driver: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindDriver, id)
	return drv, nil
}

// DeleteDriver removes a driver. The store rejects the delete while any
// non-terminal delivery still references the driver.
func (d *Directory) DeleteDriver(ctx context.Context, id string) error {
	if err := d.Store.DeleteDriver(ctx, id); err != nil {
		return fmt.Errorf("delete driver: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindDriver, id)
	return nil
}

// Customers

func (d *Directory) CreateCustomer(ctx context.Context, name string, contact domain.Contact) (*domain.Customer, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	c := &domain.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Contact:   contact,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.Store.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	d.Notifier.Notify(domain.KindCustomer, c.ID)
	return c, nil
}

func (d *Directory) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return d.Store.GetCustomer(ctx, id)
}

func (d *Directory) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return d.Store.ListCustomers(ctx)
}

func (d *Directory) UpdateCustomer(ctx context.Context, id string, upd ports.CustomerUpdate) (*domain.Customer, error) {
	c, err := d.Store.UpdateCustomer(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update customer: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindCustomer, id)
	return c, nil
}

func (d *Directory) DeleteCustomer(ctx context.Context, id string) error {
	if err := d.Store.DeleteCustomer(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindCustomer, id)
	return nil
}

// Admins

func (d *Directory) CreateAdmin(ctx context.Context, name string, contact domain.Contact) (*domain.Admin, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	a := &domain.Admin{
		ID:        uuid.NewString(),
		Name:      name,
		Contact:   contact,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.Store.CreateAdmin(ctx, a); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	d.Notifier.Notify(domain.KindAdmin, a.ID)
	return a, nil
}

func (d *Directory) GetAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	return d.Store.GetAdmin(ctx, id)
}

func (d *Directory) ListAdmins(ctx context.Context) ([]*domain.Admin, error) {
	return d.Store.ListAdmins(ctx)
}

func (d *Directory) UpdateAdmin(ctx context.Context, id string, upd ports.AdminUpdate) (*domain.Admin, error) {
	a, err := d.Store.UpdateAdmin(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update admin: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindAdmin, id)
	return a, nil
}

func (d *Directory) DeleteAdmin(ctx context.Context, id string) error {
	if err := d.Store.DeleteAdmin(ctx, id); err != nil {
		return fmt.Errorf("delete admin: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindAdmin, id)
	return nil
}

// Deliveries (reads and admin delete; lifecycle owns writes)

func (d *Directory) GetDelivery(ctx context.Context, id string) (*domain.Delivery, error) {
	return d.Store.GetDelivery(ctx, id)
}

func (d *Directory) ListDeliveries(ctx context.Context, f ports.DeliveryFilter) ([]*domain.Delivery, error) {
	return d.Store.ListDeliveries(ctx, f)
}

func (d *Directory) UpdateDelivery(ctx context.Context, id string, upd ports.DeliveryUpdate) (*domain.Delivery, error) {
	del, err := d.Store.UpdateDelivery(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update delivery: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindDelivery, id)
	return del, nil
}

func (d *Directory) DeleteDelivery(ctx context.Context, id string) error {
	if err := d.Store.DeleteDelivery(ctx, id); err != nil {
		return fmt.Errorf("delete delivery: %s: %w", id, err)
	}

	d.Notifier.Notify(domain.KindDelivery, id)
	return nil
}
