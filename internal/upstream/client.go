// Package upstream polls a remote message backend for its full log listing.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skainet/concentration-map/internal/models"
)

// DefaultTimeout bounds a single poll when none is configured
const DefaultTimeout = 4 * time.Second

// maxBody caps the listing size read from the remote backend
const maxBody = 32 << 20

// Config describes the remote listing endpoint
type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches the full message listing of a remote backend
type Client struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewClient builds a Client for the listing at cfg.URL
func NewClient(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("upstream url empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("upstream url %q must be http or https", url)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	agent := strings.TrimSpace(cfg.UserAgent)
	if agent == "" {
		agent = "concentration-map/1.0"
	}
	return &Client{
		url:       url,
		userAgent: agent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// listing accepts both the flat legacy shape and the enveloped v1 shape
type listing struct {
	Logs []models.RawMessage `json:"logs"`
	Data *struct {
		Logs []models.RawMessage `json:"logs"`
	} `json:"data"`
}

// Snapshot fetches every log the remote backend holds
func (c *Client) Snapshot(ctx context.Context) ([]models.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload listing
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode upstream listing: %w", err)
	}

	logs := payload.Logs
	if logs == nil && payload.Data != nil {
		logs = payload.Data.Logs
	}
	if logs == nil {
		logs = []models.RawMessage{}
	}
	return logs, nil
}
