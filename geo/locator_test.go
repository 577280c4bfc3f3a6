package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPLocator_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("maps a successful provider response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/81.2.69.142", r.URL.Path)
			w.Write([]byte(`{"status":"success","city":"London","regionName":"England","country":"United Kingdom","lat":51.5074,"lon":-0.1278}`))
		}))
		defer server.Close()

		loc := NewHTTPLocator(server.URL).Lookup(ctx, "81.2.69.142")

		assert.Equal(t, "London", loc.City)
		assert.Equal(t, "England", loc.Region)
		assert.Equal(t, "United Kingdom", loc.Country)
		assert.InDelta(t, 51.5074, loc.Lat, 1e-6)
		assert.InDelta(t, -0.1278, loc.Lng, 1e-6)
	})

	t.Run("provider failure degrades to unknown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"fail","message":"private range"}`))
		}))
		defer server.Close()

		loc := NewHTTPLocator(server.URL).Lookup(ctx, "10.0.0.1")

		assert.Equal(t, Unknown, loc)
	})

	t.Run("provider outage degrades to unknown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		loc := NewHTTPLocator(server.URL).Lookup(ctx, "81.2.69.142")

		assert.Equal(t, Unknown, loc)
	})
}
