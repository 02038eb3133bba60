package domain

import "fmt"

// Geographic position (latitude, longitude) in decimal degrees.
type Position struct {
	Lat float64
	Lng float64
}

// Validate checks the position against the WGS84 coordinate ranges.
func (p Position) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return RejectedError{Reason: fmt.Sprintf("latitude %v out of range [-90,90]", p.Lat)}
	}
	if p.Lng < -180 || p.Lng > 180 {
		return RejectedError{Reason: fmt.Sprintf("longitude %v out of range [-180,180]", p.Lng)}
	}
	return nil
}

// Return position as [lng, lat] for GeoJSON compatibility.
func (p Position) CoordsToList() []float64 { return []float64{p.Lng, p.Lat} }
