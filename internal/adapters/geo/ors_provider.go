package geo

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ORSProvider implements the Geocoder and DirectionsProvider ports
// against OpenRouteService. External API calls go through a retrying
// HTTP client with backoff. Safe for concurrent use.
type ORSProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
}

func NewORSProvider(apiKey string) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
	}, nil
}

// normalize collapses whitespace so equal addresses hit the same query.
func (o *ORSProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
