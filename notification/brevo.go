package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BrevoClient sends transactional emails through the Brevo HTTP API.
// Outbound calls go through a circuit breaker so a degraded mail provider
// cannot pile up blocked requests.
type BrevoClient struct {
	baseURL     string
	apiKey      string
	senderName  string
	senderEmail string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
}

func NewBrevoClient(baseURL, apiKey, senderName, senderEmail string) *BrevoClient {
	return &BrevoClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		senderName:  senderName,
		senderEmail: senderEmail,
		client:      &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "brevo-mail",
			Timeout: 60 * time.Second,
		}),
	}
}

type brevoEmail struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (c *BrevoClient) Send(ctx context.Context, to Recipient, subject, body string) error {
	payload := brevoEmail{
		Sender:      brevoAddress{Email: c.senderEmail, Name: c.senderName},
		To:          []brevoAddress{{Email: to.Email, Name: to.Name}},
		Subject:     subject,
		HTMLContent: body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not encode email payload: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/smtp/email", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("mail provider returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
