package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

// MemoryStore is the in-memory implementation of the EntityStore port.
// It backs tests and the no-database demo mode. All operations are
// atomic under one mutex; copies go in and out so no caller ever holds
// a reference into the canonical maps.
type MemoryStore struct {
	mu         sync.RWMutex
	drivers    map[string]*domain.Driver
	customers  map[string]*domain.Customer
	admins     map[string]*domain.Admin
	deliveries map[string]*domain.Delivery
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers:    make(map[string]*domain.Driver),
		customers:  make(map[string]*domain.Customer),
		admins:     make(map[string]*domain.Admin),
		deliveries: make(map[string]*domain.Delivery),
	}
}

func copyDriver(d *domain.Driver) *domain.Driver {
	c := *d
	c.CurrentLat = copyFloat(d.CurrentLat)
	c.CurrentLng = copyFloat(d.CurrentLng)
	c.PositionObservedAt = copyTime(d.PositionObservedAt)
	return &c
}

func copyCustomer(c *domain.Customer) *domain.Customer { cp := *c; return &cp }

func copyAdmin(a *domain.Admin) *domain.Admin { cp := *a; return &cp }

func copyDelivery(d *domain.Delivery) *domain.Delivery {
	c := *d
	c.DriverID = copyString(d.DriverID)
	c.FinalLat = copyFloat(d.FinalLat)
	c.FinalLng = copyFloat(d.FinalLng)
	return &c
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Drivers

func (s *MemoryStore) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drivers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyDriver(d), nil
}

func (s *MemoryStore) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, copyDriver(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateDriver(ctx context.Context, d *domain.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drivers[d.ID]; exists {
		return fmt.Errorf("create driver: id %s already exists", d.ID)
	}
	s.drivers[d.ID] = copyDriver(d)
	return nil
}

func (s *MemoryStore) UpdateDriver(ctx context.Context, id string, upd ports.DriverUpdate) (*domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		d.Name = *upd.Name
	}
	if upd.Email != nil {
		d.Contact.Email = *upd.Email
	}
	if upd.Phone != nil {
		d.Contact.Phone = *upd.Phone
	}
	if upd.Address != nil {
		d.Contact.Address = *upd.Address
	}
	return copyDriver(d), nil
}

func (s *MemoryStore) DeleteDriver(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drivers[id]; !ok {
		return domain.ErrNotFound
	}
	for _, del := range s.deliveries {
		if del.DriverID != nil && *del.DriverID == id && !del.Status.Terminal() {
			return domain.RejectedError{Reason: fmt.Sprintf("driver %s still has delivery %s in status %s", id, del.ID, del.Status)}
		}
	}
	delete(s.drivers, id)
	return nil
}

func (s *MemoryStore) UpdateDriverPosition(ctx context.Context, id string, pos domain.Position, observedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if d.PositionObservedAt != nil && !observedAt.After(*d.PositionObservedAt) {
		return false, nil
	}

	lat, lng, at := pos.Lat, pos.Lng, observedAt
	d.CurrentLat, d.CurrentLng, d.PositionObservedAt = &lat, &lng, &at
	return true, nil
}

// Customers

func (s *MemoryStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyCustomer(c), nil
}

func (s *MemoryStore) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, copyCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; exists {
		return fmt.Errorf("create customer: id %s already exists", c.ID)
	}
	s.customers[c.ID] = copyCustomer(c)
	return nil
}

func (s *MemoryStore) UpdateCustomer(ctx context.Context, id string, upd ports.CustomerUpdate) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Email != nil {
		c.Contact.Email = *upd.Email
	}
	if upd.Phone != nil {
		c.Contact.Phone = *upd.Phone
	}
	if upd.Address != nil {
		c.Contact.Address = *upd.Address
	}
	return copyCustomer(c), nil
}

func (s *MemoryStore) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

// Admins

func (s *MemoryStore) GetAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAdmin(a), nil
}

func (s *MemoryStore) ListAdmins(ctx context.Context) ([]*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, copyAdmin(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateAdmin(ctx context.Context, a *domain.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[a.ID]; exists {
		return fmt.Errorf("create admin: id %s already exists", a.ID)
	}
	s.admins[a.ID] = copyAdmin(a)
	return nil
}

func (s *MemoryStore) UpdateAdmin(ctx context.Context, id string, upd ports.AdminUpdate) (*domain.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.admins[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Email != nil {
		a.Contact.Email = *upd.Email
	}
	if upd.Phone != nil {
		a.Contact.Phone = *upd.Phone
	}
	if upd.Address != nil {
		a.Contact.Address = *upd.Address
	}
	return copyAdmin(a), nil
}

func (s *MemoryStore) DeleteAdmin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.admins, id)
	return nil
}

// Deliveries

func (s *MemoryStore) GetDelivery(ctx context.Context, id string) (*domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deliveries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyDelivery(d), nil
}

func (s *MemoryStore) ListDeliveries(ctx context.Context, f ports.DeliveryFilter) ([]*domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		if f.CustomerID != nil && d.CustomerID != *f.CustomerID {
			continue
		}
		if f.DriverID != nil && (d.DriverID == nil || *d.DriverID != *f.DriverID) {
			continue
		}
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		out = append(out, copyDelivery(d))
	}
	// Newest first, matching the dashboard listing order.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateDelivery(ctx context.Context, d *domain.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deliveries[d.ID]; exists {
		return fmt.Errorf("create delivery: id %s already exists", d.ID)
	}
	s.deliveries[d.ID] = copyDelivery(d)
	return nil
}

func (s *MemoryStore) UpdateDelivery(ctx context.Context, id string, upd ports.DeliveryUpdate) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deliveries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Status.Terminal() {
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s is %s and can no longer change", id, d.Status)}
	}
	if upd.OriginAddress != nil {
		d.OriginAddress = *upd.OriginAddress
	}
	if upd.DestinationAddress != nil {
		d.DestinationAddress = *upd.DestinationAddress
	}
	return copyDelivery(d), nil
}

func (s *MemoryStore) DeleteDelivery(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deliveries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.deliveries, id)
	return nil
}

func (s *MemoryStore) TransitionDelivery(ctx context.Context, id string, from, to domain.Status, final *domain.Position) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deliveries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Compare-and-set: a concurrent transition that won the race makes
	// this one fail, and the caller re-runs its guards.
	if d.Status != from {
		return nil, fmt.Errorf("transition delivery: status is %s, expected %s", d.Status, from)
	}
	// One active delivery per driver, checked under the same lock that
	// commits the status so concurrent starts cannot both pass.
	if to == domain.StatusInProgress && d.DriverID != nil {
		for _, other := range s.deliveries {
			if other.ID != d.ID && other.DriverID != nil && *other.DriverID == *d.DriverID && other.Status == domain.StatusInProgress {
				return nil, domain.RejectedError{Reason: fmt.Sprintf("driver %s already has an active delivery", *d.DriverID)}
			}
		}
	}

	d.Status = to
	if to == domain.StatusDelivered && final != nil {
		lat, lng := final.Lat, final.Lng
		d.FinalLat, d.FinalLng = &lat, &lng
	}
	return copyDelivery(d), nil
}

func (s *MemoryStore) CountActiveDeliveries(ctx context.Context, driverID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.deliveries {
		if d.DriverID != nil && *d.DriverID == driverID && d.Status == domain.StatusInProgress {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AssignDriver(ctx context.Context, deliveryID, driverID string) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deliveries[deliveryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Status != domain.StatusPending {
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s is %s, drivers can only be assigned while PENDING", deliveryID, d.Status)}
	}
	if d.DriverID != nil {
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s already has driver %s, unassign first", deliveryID, *d.DriverID)}
	}

	id := driverID
	d.DriverID = &id
	return copyDelivery(d), nil
}

func (s *MemoryStore) UnassignDriver(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deliveries[deliveryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Status != domain.StatusPending {
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s is %s, drivers can only be unassigned while PENDING", deliveryID, d.Status)}
	}
	if d.DriverID == nil {
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s has no driver assigned", deliveryID)}
	}

	d.DriverID = nil
	return copyDelivery(d), nil
}
