package dto

import (
	"time"

	"delivery-tracker-service/internal/domain"
)

type DriverResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Address            string     `json:"address"`
	CurrentLat         *float64   `json:"current_lat"`
	CurrentLng         *float64   `json:"current_lng"`
	PositionObservedAt *time.Time `json:"position_observed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func FromDriver(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:                 d.ID,
		Name:               d.Name,
		Email:              d.Contact.Email,
		Phone:              d.Contact.Phone,
		Address:            d.Contact.Address,
		CurrentLat:         d.CurrentLat,
		CurrentLng:         d.CurrentLng,
		PositionObservedAt: d.PositionObservedAt,
		CreatedAt:          d.CreatedAt,
	}
}

type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func FromCustomer(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Contact.Email,
		Phone:     c.Contact.Phone,
		Address:   c.Contact.Address,
		CreatedAt: c.CreatedAt,
	}
}

type AdminResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func FromAdmin(a *domain.Admin) AdminResponse {
	return AdminResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Contact.Email,
		Phone:     a.Contact.Phone,
		Address:   a.Contact.Address,
		CreatedAt: a.CreatedAt,
	}
}

type DeliveryResponse struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customer_id"`
	CustomerName       string    `json:"customer_name"`
	DriverID           *string   `json:"driver_id"`
	OriginAddress      string    `json:"origin_address"`
	DestinationAddress string    `json:"destination_address"`
	Status             string    `json:"status"`
	FinalLat           *float64  `json:"final_lat,omitempty"`
	FinalLng           *float64  `json:"final_lng,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func FromDelivery(d *domain.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:                 d.ID,
		CustomerID:         d.CustomerID,
		CustomerName:       d.CustomerName,
		DriverID:           d.DriverID,
		OriginAddress:      d.OriginAddress,
		DestinationAddress: d.DestinationAddress,
		Status:             string(d.Status),
		FinalLat:           d.FinalLat,
		FinalLng:           d.FinalLng,
		CreatedAt:          d.CreatedAt,
	}
}

// FromEntity converts any fan-out entity snapshot to its response shape.
// Unknown types pass through untouched.
func FromEntity(entity any) any {
	switch e := entity.(type) {
	case *domain.Driver:
		return FromDriver(e)
	case *domain.Customer:
		return FromCustomer(e)
	case *domain.Admin:
		return FromAdmin(e)
	case *domain.Delivery:
		return FromDelivery(e)
	default:
		return entity
	}
}
