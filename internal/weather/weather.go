// Package weather provides a best-effort lookup of current conditions for a
// region. Failures never propagate to the conversation turn: any error yields
// an absent report.
package weather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Report summarizes current conditions for a region.
type Report struct {
	Image           string `json:"image"`
	FeelsLike       string `json:"feels_like"`
	RainProbability string `json:"rain_probability"`
	UVIndex         string `json:"uv_index"`
	AirQuality      string `json:"air_quality"`
}

// Service is the lookup port the dialogue controller consumes.
type Service interface {
	// Lookup returns the current report for a region, or nil on any failure.
	Lookup(ctx context.Context, region string) *Report
}

// Client fetches weather reports over HTTP, bounded by a timeout and wrapped
// in a circuit breaker so a flapping upstream stops being hit entirely for a
// cooldown period.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*Report]
	logger   *slog.Logger
}

// NewClient creates a weather client. An empty endpoint yields a client whose
// Lookup always reports absence.
func NewClient(endpoint string, timeout time.Duration, failureThreshold uint32, cooldown time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "weather")

	settings := gobreaker.Settings{
		Name:    "weather",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("Weather breaker state changed", "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		breaker:  gobreaker.NewCircuitBreaker[*Report](settings),
		logger:   log,
	}
}

// Lookup fetches the report for a region. It returns nil on any failure:
// disabled endpoint, open breaker, transport error, non-200 status, or a body
// that does not decode.
func (c *Client) Lookup(ctx context.Context, region string) *Report {
	if c.endpoint == "" {
		return nil
	}

	report, err := c.breaker.Execute(func() (*Report, error) {
		return c.fetch(ctx, region)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Weather lookup failed", "region", region, "error", err)
		return nil
	}
	return report
}

func (c *Client) fetch(ctx context.Context, region string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.endpoint + "?region=" + url.QueryEscape(region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather endpoint returned status %d", resp.StatusCode)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return &report, nil
}
