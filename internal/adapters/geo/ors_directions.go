package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/platform/obs"
	"delivery-tracker-service/internal/ports"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Route fetches a driving route between two positions via
// ORS /v2/directions, returning the GeoJSON LineString geometry.
func (o *ORSProvider) Route(ctx context.Context, origin, destination domain.Position) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	endpoint := o.baseURL + "/v2/directions/" + o.profile + "/geojson"

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{origin.CoordsToList(), destination.CoordsToList()},
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("route: marshal request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("route: execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteResult{}, fmt.Errorf("route: decode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return ports.RouteResult{}, fmt.Errorf("route: no route between %v and %v", origin, destination)
	}

	feat := decoded.Features[0]
	return ports.RouteResult{
		DistanceMeters:  int(feat.Properties.Summary.Distance),
		DurationSeconds: int(feat.Properties.Summary.Duration),
		Geometry:        feat.Geometry.Coordinates,
	}, nil
}
