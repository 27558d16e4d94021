// Package netatmo implements the Netatmo weather-station API client: the
// HTTP transport, the OAuth2 token lifecycle and the station directory.
package netatmo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.netatmo.com"

const (
	authPath     = "/oauth2/token"
	stationsPath = "/api/getstationsdata"
	measurePath  = "/api/getmeasure"
)

// Client is the low-level transport: form-encoded POST in, JSON out.
type Client struct {
	rc     *resty.Client
	logger *slog.Logger
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &Client{
		rc:     rc,
		logger: logger.With("component", "client"),
	}
}

// PostForm sends one form-encoded POST request and decodes the JSON
// response body into out. Error envelopes are part of the decoded response;
// only transport and decode failures are errors here.
func (c *Client) PostForm(ctx context.Context, path string, form map[string]string, out any) error {
	start := time.Now()
	resp, err := c.rc.R().
		SetContext(ctx).
		SetFormData(form).
		Execute(http.MethodPost, path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}

	c.logger.Debug("request completed",
		"path", path,
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"duration", time.Since(start))

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		// The auth endpoint answers errors with JSON and a 4xx status,
		// so a non-JSON body means something upstream of the API broke.
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("request to %s failed with status %d", path, resp.StatusCode())
		}
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}
