package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

// PostgresStore is the durable implementation of the EntityStore port.
// Per-entity atomicity rides on single-statement updates; the
// compare-and-set operations put their guard in the WHERE clause so the
// check and the write commit together.
type PostgresStore struct{ DB *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

const driverColumns = `id, name, email, phone, address, current_lat, current_lng, position_observed_at, created_at`

func scanDriver(row interface{ Scan(...any) error }) (*domain.Driver, error) {
	var d domain.Driver
	err := row.Scan(
		&d.ID, &d.Name, &d.Contact.Email, &d.Contact.Phone, &d.Contact.Address,
		&d.CurrentLat, &d.CurrentLng, &d.PositionObservedAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Drivers

func (s *PostgresStore) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1;`

	d, err := scanDriver(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get driver: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY created_at;`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drivers: query: %w", err)
	}
	defer rows.Close()

	drivers := make([]*domain.Driver, 0, 64)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("list drivers: scan row: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drivers: row iteration: %w", err)
	}
	return drivers, nil
}

func (s *PostgresStore) CreateDriver(ctx context.Context, d *domain.Driver) error {
	query := `
	INSERT INTO drivers (id, name, email, phone, address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := s.DB.ExecContext(ctx, query, d.ID, d.Name, d.Contact.Email, d.Contact.Phone, d.Contact.Address, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create driver: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDriver(ctx context.Context, id string, upd ports.DriverUpdate) (*domain.Driver, error) {
	query := `
	UPDATE drivers SET
		name = COALESCE($2, name),
		email = COALESCE($3, email),
		phone = COALESCE($4, phone),
		address = COALESCE($5, address)
	WHERE id = $1
	RETURNING ` + driverColumns + `;`

	d, err := scanDriver(s.DB.QueryRowContext(ctx, query, id, upd.Name, upd.Email, upd.Phone, upd.Address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update driver: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) DeleteDriver(ctx context.Context, id string) error {
	// Refuse while any non-terminal delivery references the driver; the
	// guard sits in the same statement as the delete.
	query := `
	DELETE FROM drivers
	WHERE id = $1
	AND NOT EXISTS (
		SELECT 1 FROM deliveries
		WHERE driver_id = $1 AND status IN ('PENDING', 'IN_PROGRESS')
	);
	`
	res, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete driver: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete driver: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.GetDriver(ctx, id); err != nil {
		return err
	}
	return domain.RejectedError{Reason: fmt.Sprintf("driver %s still has an active delivery", id)}
}

func (s *PostgresStore) UpdateDriverPosition(ctx context.Context, id string, pos domain.Position, observedAt time.Time) (bool, error) {
	// The staleness guard lives in the WHERE clause, so two in-flight
	// reports for the same driver cannot interleave check and write.
	query := `
	UPDATE drivers SET
		current_lat = $2,
		current_lng = $3,
		position_observed_at = $4
	WHERE id = $1
	AND (position_observed_at IS NULL OR position_observed_at < $4);
	`
	res, err := s.DB.ExecContext(ctx, query, id, pos.Lat, pos.Lng, observedAt)
	if err != nil {
		return false, fmt.Errorf("update driver position: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update driver position: rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := s.GetDriver(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Customers

const contactColumns = `id, name, email, phone, address, created_at`

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + contactColumns + ` FROM customers WHERE id = $1;`

	var c domain.Customer
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Contact.Email, &c.Contact.Phone, &c.Contact.Address, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: scan row: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	query := `SELECT ` + contactColumns + ` FROM customers ORDER BY created_at;`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: query: %w", err)
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact.Email, &c.Contact.Phone, &c.Contact.Address, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list customers: scan row: %w", err)
		}
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: row iteration: %w", err)
	}
	return customers, nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	query := `
	INSERT INTO customers (id, name, email, phone, address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := s.DB.ExecContext(ctx, query, c.ID, c.Name, c.Contact.Email, c.Contact.Phone, c.Contact.Address, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create customer: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCustomer(ctx context.Context, id string, upd ports.CustomerUpdate) (*domain.Customer, error) {
	query := `
	UPDATE customers SET
		name = COALESCE($2, name),
		email = COALESCE($3, email),
		phone = COALESCE($4, phone),
		address = COALESCE($5, address)
	WHERE id = $1
	RETURNING ` + contactColumns + `;`

	var c domain.Customer
	err := s.DB.QueryRowContext(ctx, query, id, upd.Name, upd.Email, upd.Phone, upd.Address).
		Scan(&c.ID, &c.Name, &c.Contact.Email, &c.Contact.Phone, &c.Contact.Address, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update customer: scan row: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "customers", id, "delete customer")
}

// Admins

func (s *PostgresStore) GetAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	query := `SELECT ` + contactColumns + ` FROM admins WHERE id = $1;`

	var a domain.Admin
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Contact.Email, &a.Contact.Phone, &a.Contact.Address, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: scan row: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAdmins(ctx context.Context) ([]*domain.Admin, error) {
	query := `SELECT ` + contactColumns + ` FROM admins ORDER BY created_at;`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list admins: query: %w", err)
	}
	defer rows.Close()

	admins := make([]*domain.Admin, 0, 8)
	for rows.Next() {
		var a domain.Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.Contact.Email, &a.Contact.Phone, &a.Contact.Address, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("list admins: scan row: %w", err)
		}
		admins = append(admins, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admins: row iteration: %w", err)
	}
	return admins, nil
}

func (s *PostgresStore) CreateAdmin(ctx context.Context, a *domain.Admin) error {
	query := `
	INSERT INTO admins (id, name, email, phone, address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := s.DB.ExecContext(ctx, query, a.ID, a.Name, a.Contact.Email, a.Contact.Phone, a.Contact.Address, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create admin: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAdmin(ctx context.Context, id string, upd ports.AdminUpdate) (*domain.Admin, error) {
	query := `
	UPDATE admins SET
		name = COALESCE($2, name),
		email = COALESCE($3, email),
		phone = COALESCE($4, phone),
		address = COALESCE($5, address)
	WHERE id = $1
	RETURNING ` + contactColumns + `;`

	var a domain.Admin
	err := s.DB.QueryRowContext(ctx, query, id, upd.Name, upd.Email, upd.Phone, upd.Address).
		Scan(&a.ID, &a.Name, &a.Contact.Email, &a.Contact.Phone, &a.Contact.Address, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update admin: scan row: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) DeleteAdmin(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "admins", id, "delete admin")
}

// Deliveries

const deliveryColumns = `id, customer_id, customer_name, driver_id, origin_address, destination_address, status, final_lat, final_lng, created_at`

func scanDelivery(row interface{ Scan(...any) error }) (*domain.Delivery, error) {
	var d domain.Delivery
	err := row.Scan(
		&d.ID, &d.CustomerID, &d.CustomerName, &d.DriverID,
		&d.OriginAddress, &d.DestinationAddress, &d.Status,
		&d.FinalLat, &d.FinalLng, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) GetDelivery(ctx context.Context, id string) (*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1;`

	d, err := scanDelivery(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDeliveries(ctx context.Context, f ports.DeliveryFilter) ([]*domain.Delivery, error) {
	query := `
	SELECT ` + deliveryColumns + ` FROM deliveries
	WHERE ($1::text IS NULL OR customer_id = $1)
	AND ($2::text IS NULL OR driver_id = $2)
	AND ($3::text IS NULL OR status = $3)
	ORDER BY created_at DESC;
	`
	var status *string
	if f.Status != nil {
		st := string(*f.Status)
		status = &st
	}

	rows, err := s.DB.QueryContext(ctx, query, f.CustomerID, f.DriverID, status)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: query: %w", err)
	}
	defer rows.Close()

	deliveries := make([]*domain.Delivery, 0, 64)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("list deliveries: scan row: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliveries: row iteration: %w", err)
	}
	return deliveries, nil
}

func (s *PostgresStore) CreateDelivery(ctx context.Context, d *domain.Delivery) error {
	query := `
	INSERT INTO deliveries (id, customer_id, customer_name, driver_id, origin_address, destination_address, status, final_lat, final_lng, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := s.DB.ExecContext(ctx, query,
		d.ID, d.CustomerID, d.CustomerName, d.DriverID,
		d.OriginAddress, d.DestinationAddress, string(d.Status),
		d.FinalLat, d.FinalLng, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create delivery: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDelivery(ctx context.Context, id string, upd ports.DeliveryUpdate) (*domain.Delivery, error) {
	query := `
	UPDATE deliveries SET
		origin_address = COALESCE($2, origin_address),
		destination_address = COALESCE($3, destination_address)
	WHERE id = $1
	AND status NOT IN ('DELIVERED', 'CANCELLED')
	RETURNING ` + deliveryColumns + `;`

	d, err := scanDelivery(s.DB.QueryRowContext(ctx, query, id, upd.OriginAddress, upd.DestinationAddress))
	if errors.Is(err, sql.ErrNoRows) {
		cur, gerr := s.GetDelivery(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s is %s and can no longer change", id, cur.Status)}
	}
	if err != nil {
		return nil, fmt.Errorf("update delivery: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) DeleteDelivery(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "deliveries", id, "delete delivery")
}

func (s *PostgresStore) TransitionDelivery(ctx context.Context, id string, from, to domain.Status, final *domain.Position) (*domain.Delivery, error) {
	// Compare-and-set in one statement; the final position lands in the
	// same commit as a DELIVERED status change, and a move to IN_PROGRESS
	// commits only while the driver has no other active delivery.
	query := `
	UPDATE deliveries SET
		status = $3,
		final_lat = COALESCE($4, final_lat),
		final_lng = COALESCE($5, final_lng)
	WHERE id = $1 AND status = $2
	AND ($3 <> 'IN_PROGRESS' OR NOT EXISTS (
		SELECT 1 FROM deliveries other
		WHERE other.driver_id = deliveries.driver_id
		AND other.id <> deliveries.id
		AND other.status = 'IN_PROGRESS'))
	RETURNING ` + deliveryColumns + `;`

	var finalLat, finalLng *float64
	if to == domain.StatusDelivered && final != nil {
		finalLat, finalLng = &final.Lat, &final.Lng
	}

	d, err := scanDelivery(s.DB.QueryRowContext(ctx, query, id, string(from), string(to), finalLat, finalLng))
	if errors.Is(err, sql.ErrNoRows) {
		cur, gerr := s.GetDelivery(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if cur.Status != from {
			return nil, fmt.Errorf("transition delivery: status is %s, expected %s", cur.Status, from)
		}
		driverID := ""
		if cur.DriverID != nil {
			driverID = *cur.DriverID
		}
		return nil, domain.RejectedError{Reason: fmt.Sprintf("driver %s already has an active delivery", driverID)}
	}
	if err != nil {
		return nil, fmt.Errorf("transition delivery: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) CountActiveDeliveries(ctx context.Context, driverID string) (int, error) {
	query := `SELECT COUNT(*) FROM deliveries WHERE driver_id = $1 AND status = 'IN_PROGRESS';`

	var n int
	if err := s.DB.QueryRowContext(ctx, query, driverID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active deliveries: scan: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) AssignDriver(ctx context.Context, deliveryID, driverID string) (*domain.Delivery, error) {
	query := `
	UPDATE deliveries SET driver_id = $2
	WHERE id = $1 AND status = 'PENDING' AND driver_id IS NULL
	RETURNING ` + deliveryColumns + `;`

	d, err := scanDelivery(s.DB.QueryRowContext(ctx, query, deliveryID, driverID))
	if errors.Is(err, sql.ErrNoRows) {
		cur, gerr := s.GetDelivery(ctx, deliveryID)
		if gerr != nil {
			return nil, gerr
		}
		if cur.Status != domain.StatusPending {
			return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s is %s, drivers can only be assigned while PENDING", deliveryID, cur.Status)}
		}
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s already has driver %s, unassign first", deliveryID, *cur.DriverID)}
	}
	if err != nil {
		return nil, fmt.Errorf("assign driver: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) UnassignDriver(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	query := `
	UPDATE deliveries SET driver_id = NULL
	WHERE id = $1 AND status = 'PENDING' AND driver_id IS NOT NULL
	RETURNING ` + deliveryColumns + `;`

	d, err := scanDelivery(s.DB.QueryRowContext(ctx, query, deliveryID))
	if errors.Is(err, sql.ErrNoRows) {
		cur, gerr := s.GetDelivery(ctx, deliveryID)
		if gerr != nil {
			return nil, gerr
		}
		if cur.Status != domain.StatusPending {
			return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s is %s, drivers can only be unassigned while PENDING", deliveryID, cur.Status)}
		}
		return nil, domain.RejectedError{Reason: fmt.Sprintf("delivery %s has no driver assigned", deliveryID)}
	}
	if err != nil {
		return nil, fmt.Errorf("unassign driver: scan row: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) deleteByID(ctx context.Context, table, id, op string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1;`, table)

	res, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
