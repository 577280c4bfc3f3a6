package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"optimal-bank-api/logger"
	"time"

	"github.com/sony/gobreaker"
)

// Location is the result of an IP geolocation lookup.
type Location struct {
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Unknown is returned whenever a lookup cannot be resolved. Callers can rely
// on always getting a usable Location back.
var Unknown = Location{City: "Unknown", Region: "Unknown", Country: "Unknown"}

// Locator resolves an IP address to a geographic location.
type Locator interface {
	Lookup(ctx context.Context, ip string) Location
}

// HTTPLocator queries an ip-api style JSON endpoint. Calls go through a
// circuit breaker so a degraded geolocation provider cannot slow down logins.
type HTTPLocator struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPLocator(baseURL string) *HTTPLocator {
	return &HTTPLocator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "geo-lookup",
			Timeout: 30 * time.Second,
		}),
	}
}

type lookupResponse struct {
	Status  string  `json:"status"`
	City    string  `json:"city"`
	Region  string  `json:"regionName"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lon"`
}

// Lookup resolves ip to a Location. Any failure (provider down, breaker open,
// unparseable body) degrades to Unknown rather than failing the caller.
func (l *HTTPLocator) Lookup(ctx context.Context, ip string) Location {
	result, err := l.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", l.baseURL, ip), nil)
		if err != nil {
			return nil, err
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
		}

		var body lookupResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, err
		}
		if body.Status != "success" {
			return nil, fmt.Errorf("geo lookup failed for ip %s", ip)
		}
		return body, nil
	})
	if err != nil {
		logger.Log.WithError(err).WithField("ip", ip).Warn("Geo lookup failed, using unknown location")
		return Unknown
	}

	body := result.(lookupResponse)
	return Location{
		City:    body.City,
		Region:  body.Region,
		Country: body.Country,
		Lat:     body.Lat,
		Lng:     body.Lng,
	}
}
