// Package nominatim implements the geocoding.Geocoder interface against a
// Nominatim-compatible search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/waypointco/waypoint-api/internal/config"
	"github.com/waypointco/waypoint-api/internal/domain"
	"github.com/waypointco/waypoint-api/internal/geocoding"
)

// errPermanent marks provider outcomes that retrying cannot change, such as a
// rejected request. It is always wrapped alongside ErrGeocodeFailed.
var errPermanent = errors.New("permanent geocode failure")

// searchResult is the subset of a Nominatim search response we consume.
type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client implements the geocoding.Geocoder interface using a
// Nominatim-compatible HTTP API.
type Client struct {
	baseURL    string
	userAgent  string
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements geocoding.Geocoder interface
var _ geocoding.Geocoder = (*Client)(nil)

// NewClient creates a geocoder client from the provided configuration.
// The configured timeout bounds each individual request to the provider,
// independent of the caller's context deadline.
func NewClient(cfg config.GeocoderConfig, log *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", geocoding.ErrInvalidConfig)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("%w: user agent cannot be empty", geocoding.ErrInvalidConfig)
	}
	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", geocoding.ErrInvalidConfig)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.With(slog.String("component", "geocoder")),
	}, nil
}

// Geocode implements geocoding.Geocoder.Geocode.
// Transient provider failures (transport errors, 5xx, 429) are retried with
// exponential backoff and jitter up to the configured number of retries;
// "address unknown" is permanent and returns ErrNoResults immediately.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if address == "" {
		return domain.Coordinates{}, fmt.Errorf("%w: empty address", geocoding.ErrGeocodeFailed)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		coords, err := c.search(ctx, address)
		if err == nil {
			return coords, nil
		}

		// Permanent outcomes are never retried.
		if errors.Is(err, geocoding.ErrNoResults) || errors.Is(err, errPermanent) || ctx.Err() != nil {
			return domain.Coordinates{}, err
		}

		if attempt >= c.maxRetries {
			c.logger.Warn("geocode retries exhausted",
				slog.Int("attempts", attempt+1),
				slog.String("error", err.Error()))
			return domain.Coordinates{}, err
		}

		// Exponential backoff with jitter, base 500ms.
		backoff := 500 * time.Millisecond * time.Duration(math.Pow(2, float64(attempt)))
		delay := time.Duration(float64(backoff) * (0.5 + rng.Float64()*0.5))

		c.logger.Debug("retrying geocode after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.Coordinates{}, fmt.Errorf("%w: %v", geocoding.ErrGeocodeFailed, ctx.Err())
		}
	}
}

// search performs a single request against the provider.
func (c *Client) search(ctx context.Context, address string) (domain.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s",
		c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: %v", geocoding.ErrGeocodeFailed, err)
	}
	// Nominatim's usage policy requires an identifying user agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("geocode request failed", slog.String("error", err.Error()))
		return domain.Coordinates{}, fmt.Errorf("%w: %v", geocoding.ErrGeocodeFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", slog.String("error", err.Error()))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("geocode provider returned error status",
			slog.Int("status", resp.StatusCode))
		// 4xx other than 429 means the request itself was rejected; retrying
		// the same request cannot succeed.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return domain.Coordinates{}, fmt.Errorf("%w: %w: provider status %d",
				geocoding.ErrGeocodeFailed, errPermanent, resp.StatusCode)
		}
		return domain.Coordinates{}, fmt.Errorf("%w: provider status %d",
			geocoding.ErrGeocodeFailed, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: malformed provider response: %v",
			geocoding.ErrGeocodeFailed, err)
	}

	if len(results) == 0 {
		return domain.Coordinates{}, geocoding.ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: malformed latitude %q",
			geocoding.ErrGeocodeFailed, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: malformed longitude %q",
			geocoding.ErrGeocodeFailed, results[0].Lon)
	}

	coords := domain.Coordinates{Lat: lat, Lng: lng}
	if !coords.Valid() {
		return domain.Coordinates{}, fmt.Errorf("%w: coordinates out of range",
			geocoding.ErrGeocodeFailed)
	}

	return coords, nil
}
