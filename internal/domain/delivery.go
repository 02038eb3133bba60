package domain

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a delivery.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus validates an externally supplied status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusInProgress, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", RejectedError{Reason: "unknown status " + s}
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// validTransitions is the authoritative state machine definition.
var validTransitions = []struct{ From, To Status }{
	{From: StatusPending, To: StatusInProgress},
	{From: StatusInProgress, To: StatusDelivered},
	{From: StatusPending, To: StatusCancelled},
	{From: StatusInProgress, To: StatusCancelled},
}

var transitionSet = func() map[[2]Status]bool {
	m := make(map[[2]Status]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[[2]Status{t.From, t.To}] = true
	}
	return m
}()

// ValidNext returns all states reachable from the given status.
func ValidNext(from Status) []Status {
	var next []Status
	for _, t := range validTransitions {
		if t.From == from {
			next = append(next, t.To)
		}
	}
	return next
}

// CanTransition checks the transition table. It knows nothing about
// guards (driver assignment, final position); those belong to the
// lifecycle service where store state is available.
func CanTransition(from, to Status) error {
	if transitionSet[[2]Status{from, to}] {
		return nil
	}
	return InvalidTransitionError{From: from, To: to}
}

// Delivery is one trip from an origin address to a destination address.
// CustomerName is a display-only denormalization; the customer record
// reached through CustomerID stays authoritative.
type Delivery struct {
	ID                 string
	CustomerID         string
	CustomerName       string
	DriverID           *string
	OriginAddress      string
	DestinationAddress string
	Status             Status
	FinalLat           *float64
	FinalLng           *float64
	CreatedAt          time.Time
}

// FinalPosition returns the position stamped on the DELIVERED commit, if any.
func (d *Delivery) FinalPosition() (Position, bool) {
	if d.FinalLat == nil || d.FinalLng == nil {
		return Position{}, false
	}
	return Position{Lat: *d.FinalLat, Lng: *d.FinalLng}, true
}
