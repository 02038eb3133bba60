package dto

import (
	"time"

	"delivery-tracker-service/internal/ports"
)

type CreatePersonRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdatePersonRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r UpdatePersonRequest) ToDriverUpdate() ports.DriverUpdate {
	return ports.DriverUpdate{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

func (r UpdatePersonRequest) ToCustomerUpdate() ports.CustomerUpdate {
	return ports.CustomerUpdate{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

func (r UpdatePersonRequest) ToAdminUpdate() ports.AdminUpdate {
	return ports.AdminUpdate{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

type CreateDeliveryRequest struct {
	CustomerID         string  `json:"customer_id"`
	DriverID           *string `json:"driver_id"`
	OriginAddress      string  `json:"origin_address"`
	DestinationAddress string  `json:"destination_address"`
}

type UpdateDeliveryRequest struct {
	OriginAddress      *string `json:"origin_address"`
	DestinationAddress *string `json:"destination_address"`
}

type TransitionRequest struct {
	Status   string   `json:"status"`
	FinalLat *float64 `json:"final_lat"`
	FinalLng *float64 `json:"final_lng"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id"`
}

type ReportPositionRequest struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	ObservedAt *time.Time `json:"observed_at"`
}

type RouteOverviewResponse struct {
	Origin          []float64   `json:"origin"`
	Destination     []float64   `json:"destination"`
	DistanceMeters  int         `json:"distance_meters"`
	DurationSeconds int         `json:"duration_seconds"`
	Geometry        [][]float64 `json:"geometry"`
}

// StreamEvent is one SSE payload on an observer's push channel.
type StreamEvent struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Seq     uint64 `json:"seq"`
	Deleted bool   `json:"deleted,omitempty"`
	Entity  any    `json:"entity,omitempty"`
}
