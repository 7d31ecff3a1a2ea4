// Package processing triggers site qualification on the external processing
// service and serializes triggers through a single-site cooldown gate.
//
// The processing API runs long jobs; a request that exceeds the client
// timeout is treated as accepted, not failed. Callers distinguish that case
// via ErrQueued.
package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrQueued reports that the trigger request timed out before the processing
// service responded. The job is assumed to be running.
var ErrQueued = errors.New("processing: trigger queued, no response within timeout")

// Client calls the external processing API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a processing client. timeout bounds each trigger call;
// exceeding it yields ErrQueued rather than a hard failure.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Trigger requests qualification processing for siteID.
// Returns ErrQueued when the service accepted the work but did not respond
// within the client timeout.
func (c *Client) Trigger(ctx context.Context, siteID string) error {
	endpoint := fmt.Sprintf("%s/api/process/%s?token=%s",
		c.baseURL, url.PathEscape(siteID), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("processing: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrQueued
		}
		return fmt.Errorf("processing: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("processing: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
