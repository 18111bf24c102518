package observation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Adbay/widget-weather/internal/modules/widget/types"
)

const (
	DefaultBaseURL = "https://api.weather.gov"

	// maxErrorBody caps how much of a failed response is read for the problem document.
	maxErrorBody = 64 << 10
)

var (
	// ErrEmptyStation is returned before any request is made.
	ErrEmptyStation = errors.New("station id is empty")
	// ErrMalformedResponse covers a 2xx body without a properties object.
	ErrMalformedResponse = errors.New("malformed observation response")
)

// Fetcher is what the renderer needs from an observation source.
type Fetcher interface {
	FetchLatest(ctx context.Context, station string) (*types.Observation, error)
}

// Client reads the latest observation for a station from the weather.gov API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a Client with an explicit timeout instead of
// http.DefaultClient. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

// LatestURL is the request URL for a station. The id is path-escaped but
// otherwise passed through as configured.
func (c *Client) LatestURL(station string) string {
	return c.baseURL + "/stations/" + url.PathEscape(station) + "/observations/latest"
}

// FetchLatest issues one GET for the station's latest observation.
func (c *Client) FetchLatest(ctx context.Context, station string) (*types.Observation, error) {
	if station == "" {
		return nil, ErrEmptyStation
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.LatestURL(station), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		// Non-problem bodies (HTML error pages, plain text) leave Title/Detail empty.
		_ = json.Unmarshal(body, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return nil, apiErr
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Properties == nil {
		return nil, ErrMalformedResponse
	}

	obs := &types.Observation{Station: station}
	if t := payload.Properties.Temperature; t != nil && t.Value != nil {
		v := *t.Value
		if t.UnitCode == "wmoUnit:degF" {
			v = (v - 32) * 5 / 9
		}
		obs.TemperatureC = &v
	}
	if d := payload.Properties.TextDescription; d != nil {
		obs.Description = *d
	}
	return obs, nil
}
