// Package users talks to the user service to confirm that the user behind an
// order exists.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"orderservice/pkg/otel"
)

// User is the subset of the user service representation the order service
// cares about.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Verifier looks a user up. A nil user with a nil error means the user does
// not exist.
type Verifier interface {
	Verify(ctx context.Context, userID int) (*User, error)
}

// ErrUnexpectedStatus is returned when the user service answers with
// anything other than 200 or 404.
var ErrUnexpectedStatus = errors.New("unexpected status from user service")

// Client is an HTTP Verifier.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the user service at baseURL. Each request is
// bounded by timeout in addition to the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Verify issues GET {baseURL}/api/users/{userID}.
func (c *Client) Verify(ctx context.Context, userID int) (*User, error) {
	ctx, span := otel.AddSpan(ctx, "users.verify", attribute.Int("user_id", userID))
	defer span.End()

	url := fmt.Sprintf("%s/api/users/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.InjectHTTP(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling user service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	if u.ID == 0 {
		u.ID = userID
	}
	return &u, nil
}
