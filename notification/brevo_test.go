package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrevoClient_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the payload with the api key", func(t *testing.T) {
		var received brevoEmail
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/smtp/email", r.URL.Path)
			assert.Equal(t, "secret-key", r.Header.Get("api-key"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := NewBrevoClient(server.URL, "secret-key", "Optimal Bank", "noreply@optimalbank.example")
		err := client.Send(ctx, Recipient{Email: "alice@example.com", Name: "alice"},
			"New transaction", "<p>Hello</p>")

		assert.NoError(t, err)
		assert.Equal(t, "noreply@optimalbank.example", received.Sender.Email)
		assert.Equal(t, []brevoAddress{{Email: "alice@example.com", Name: "alice"}}, received.To)
		assert.Equal(t, "New transaction", received.Subject)
		assert.Equal(t, "<p>Hello</p>", received.HTMLContent)
	})

	t.Run("provider error surfaces to the caller", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewBrevoClient(server.URL, "bad-key", "Optimal Bank", "noreply@optimalbank.example")
		err := client.Send(ctx, Recipient{Email: "alice@example.com"}, "subject", "body")

		assert.Error(t, err)
	})
}
