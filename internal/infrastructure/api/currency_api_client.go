package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/metrics"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL serves the latest snapshots; "@latest" is swapped for "@YYYY-MM-DD" for history
	DefaultBaseURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1"
	// DefaultLatestTag is the version tag in DefaultBaseURL
	DefaultLatestTag = "latest"

	currenciesPath = "/currencies.json"
	snapshotPath   = "/currencies/%s.json"
	minifiedPath   = "/currencies/%s.min.json"

	maxBodyBytes = 16 << 20
)

// Upstream endpoints, used as metric labels
const (
	endpointCurrencies = "currencies"
	endpointLatest     = "latest"
	endpointHistorical = "historical"
	endpointMinified   = "minified"
)

// CurrencyAPIClient implements service.RateProvider against the currency API CDN
type CurrencyAPIClient struct {
	baseURL    string
	latestTag  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// ClientOption is a functional option for configuring the CurrencyAPIClient
type ClientOption func(*CurrencyAPIClient)

// WithHTTPClient sets the HTTP client to use for requests
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *CurrencyAPIClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLatestTag overrides the version tag replaced for historical requests
func WithLatestTag(tag string) ClientOption {
	return func(c *CurrencyAPIClient) {
		if tag != "" {
			c.latestTag = tag
		}
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *CurrencyAPIClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the client logger
func WithLogger(log logger.Logger) ClientOption {
	return func(c *CurrencyAPIClient) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithMetrics sets the collectors upstream calls are recorded into
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *CurrencyAPIClient) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewCurrencyAPIClient creates a new currency API client
func NewCurrencyAPIClient(baseURL string, options ...ClientOption) *CurrencyAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &CurrencyAPIClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		latestTag: DefaultLatestTag,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  logger.GetDefaultLogger(),
		metrics: metrics.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// FetchSnapshot retrieves the latest or a historical snapshot for base
func (c *CurrencyAPIClient) FetchSnapshot(ctx context.Context, base string, when entity.When) (*entity.Snapshot, error) {
	base = strings.ToLower(base)

	root := c.baseURL
	endpoint := endpointLatest
	if !when.IsLatest() {
		var err error
		root, err = c.historicalRoot(when.Date())
		if err != nil {
			return nil, err
		}
		endpoint = endpointHistorical
	}

	body, err := c.get(ctx, endpoint, root+fmt.Sprintf(snapshotPath, base))
	if err != nil {
		return nil, fmt.Errorf("fetching %s rates for %s: %w", when, base, err)
	}

	snapshot, err := c.normalize(endpoint, body, when)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s rates for %s: %w", when, base, err)
	}

	if snapshot.Base != base {
		c.logger.Warn("Snapshot base differs from requested base", map[string]interface{}{
			"requested": base,
			"received":  snapshot.Base,
			"when":      when.Key(),
		})
	}

	c.logger.Debug("Fetched snapshot", map[string]interface{}{
		"base":       snapshot.Base,
		"date":       snapshot.Date.Format(entity.DateLayout),
		"when":       when.Key(),
		"rate_count": len(snapshot.Rates),
	})

	return snapshot, nil
}

// FetchMinifiedSnapshot retrieves the minified latest snapshot for base
func (c *CurrencyAPIClient) FetchMinifiedSnapshot(ctx context.Context, base string) (*entity.Snapshot, error) {
	base = strings.ToLower(base)

	body, err := c.get(ctx, endpointMinified, c.baseURL+fmt.Sprintf(minifiedPath, base))
	if err != nil {
		return nil, fmt.Errorf("fetching minified rates for %s: %w", base, err)
	}

	snapshot, err := c.normalize(endpointMinified, body, entity.Latest())
	if err != nil {
		return nil, fmt.Errorf("normalizing minified rates for %s: %w", base, err)
	}

	return snapshot, nil
}

// FetchCurrencies retrieves the currency code to name listing
func (c *CurrencyAPIClient) FetchCurrencies(ctx context.Context) (entity.CurrencyList, error) {
	body, err := c.get(ctx, endpointCurrencies, c.baseURL+currenciesPath)
	if err != nil {
		return nil, fmt.Errorf("fetching currencies: %w", err)
	}

	var currencies entity.CurrencyList
	if err := json.Unmarshal(body, &currencies); err != nil || currencies == nil {
		c.recordOutcome(endpointCurrencies, entity.ErrMalformedResponse)
		return nil, fmt.Errorf("decoding currencies: %w", entity.ErrMalformedResponse)
	}

	c.recordOutcome(endpointCurrencies, nil)
	return currencies, nil
}

// historicalRoot swaps the latest tag in the base URL for date
func (c *CurrencyAPIClient) historicalRoot(date time.Time) (string, error) {
	tag := "@" + c.latestTag
	if !strings.Contains(c.baseURL, tag) {
		c.logger.Error("Provider base URL has no version tag, historical rates unavailable", map[string]interface{}{
			"base_url": c.baseURL,
			"tag":      tag,
		})
		return "", fmt.Errorf("base URL has no %s tag: %w", tag, entity.ErrNotFound)
	}
	return strings.Replace(c.baseURL, tag, "@"+date.Format(entity.DateLayout), 1), nil
}

// normalize turns body into a snapshot dated by the document, or by when
// for historical requests whose document carries no date
func (c *CurrencyAPIClient) normalize(endpoint string, body []byte, when entity.When) (*entity.Snapshot, error) {
	snapshot, err := NormalizeSnapshot(body, c.logger)
	if err == nil && snapshot.Date.IsZero() {
		if when.IsLatest() {
			err = fmt.Errorf("%w: document has no date", entity.ErrMalformedResponse)
			snapshot = nil
		} else {
			snapshot.Date = when.Date()
		}
	}
	c.recordOutcome(endpoint, err)
	return snapshot, err
}

// get performs one GET and maps transport failures onto the error taxonomy
func (c *CurrencyAPIClient) get(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrUpstreamUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.recordOutcome(endpoint, entity.ErrUpstreamUnavailable)
		c.logger.Warn("Upstream request failed", map[string]interface{}{
			"url":   reqURL,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", entity.ErrUpstreamUnavailable, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := classifyStatus(resp.StatusCode)
		c.recordOutcome(endpoint, statusErr)
		c.logger.Warn("Upstream returned error status", map[string]interface{}{
			"url":    reqURL,
			"status": resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: status %d", statusErr, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordOutcome(endpoint, entity.ErrUpstreamUnavailable)
		return nil, fmt.Errorf("%w: reading body: %w", entity.ErrUpstreamUnavailable, err)
	}

	return body, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return entity.ErrNotFound
	case status == http.StatusTooManyRequests:
		return entity.ErrRateLimited
	default:
		return entity.ErrUpstreamUnavailable
	}
}

func (c *CurrencyAPIClient) recordOutcome(endpoint string, err error) {
	c.metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, entity.ErrMalformedResponse):
		return "malformed"
	default:
		return "unavailable"
	}
}
