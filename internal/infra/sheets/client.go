// Package sheets forwards captured leads to a spreadsheet web app endpoint
// (a Google Apps Script deployment that appends one row per POST).
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quiz-funnel/internal/domain"
)

// Client posts lead records to the spreadsheet endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New returns a client for url, or false when url is not an http(s) endpoint.
func New(url string, timeout time.Duration) (*Client, bool) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http") {
		return nil, false
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}, true
}

// Send posts the record as a JSON body. The content type is text/plain so that
// Apps Script accepts it the same way it accepts browser no-cors posts.
func (c *Client) Send(ctx context.Context, record domain.LeadRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post lead: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("post lead: unexpected status %d", resp.StatusCode)
	}
	return nil
}
