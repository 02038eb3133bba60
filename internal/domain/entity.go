package domain

import "time"

// Kind tags the entity collections the store manages.
type Kind string

const (
	KindDriver   Kind = "driver"
	KindCustomer Kind = "customer"
	KindAdmin    Kind = "admin"
	KindDelivery Kind = "delivery"
)

// Contact holds the fields shared by every person-shaped record.
// Driver, Customer and Admin embed it rather than forming a hierarchy.
type Contact struct {
	Email   string
	Phone   string
	Address string
}

// Driver is a courier tracked by the system. Position fields stay nil
// until the first accepted location report; PositionObservedAt orders
// reports so late network delivery never regresses the shown position.
type Driver struct {
	ID                 string
	Name               string
	Contact            Contact
	CurrentLat         *float64
	CurrentLng         *float64
	PositionObservedAt *time.Time
	CreatedAt          time.Time
}

// Position returns the driver's last reported position, if any.
func (d *Driver) Position() (Position, bool) {
	if d.CurrentLat == nil || d.CurrentLng == nil {
		return Position{}, false
	}
	return Position{Lat: *d.CurrentLat, Lng: *d.CurrentLng}, true
}

// Customer is a delivery recipient. Read-mostly after creation.
type Customer struct {
	ID        string
	Name      string
	Contact   Contact
	CreatedAt time.Time
}

// Admin operates the fleet. Credentials live in the external session
// service; the record carries contact data only.
type Admin struct {
	ID        string
	Name      string
	Contact   Contact
	CreatedAt time.Time
}
