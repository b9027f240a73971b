// Package registry fetches event class schemas from a schema registry.
package registry

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ocsf-standard-creator/internal/apperrors"
	"ocsf-standard-creator/internal/observability/metrics"
)

// ClientConfig configures registry access.
type ClientConfig struct {
	// BaseURL is the registry root, e.g. https://schema.ocsf.io.
	BaseURL string

	// APIVersion is the schema version segment of the path.
	APIVersion string

	// Timeout for the request (default: 30s).
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// UserAgent string (default: "ocsf-standard-creator/1.0").
	UserAgent string

	// MaxBodyBytes caps the response size (default: 32MiB).
	MaxBodyBytes int64

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// DefaultClientConfig returns a client config with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "https://schema.ocsf.io",
		APIVersion:   "1.0.0",
		Timeout:      30 * time.Second,
		UserAgent:    "ocsf-standard-creator/1.0",
		MaxBodyBytes: 32 << 20,
	}
}

// Client retrieves raw schema text.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClient creates a registry client. Zero fields fall back to defaults;
// the caller's config is not modified.
func NewClient(cfg *ClientConfig, m *metrics.Metrics) *Client {
	defaults := DefaultClientConfig()
	if cfg == nil {
		cfg = defaults
	}
	config := *cfg
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.APIVersion == "" {
		config.APIVersion = defaults.APIVersion
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}

	logger := log.With().Str("component", "registry").Logger()

	transport := config.Transport
	if transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if config.InsecureSkipVerify {
			logger.Warn().Str("baseUrl", config.BaseURL).Msg("TLS certificate verification disabled for schema registry")
			base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
		}
		transport = base
	}

	return &Client{
		config: &config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		metrics: m,
		logger:  logger,
	}
}

// ClassURL builds {base}/api/{version}/classes/{event}?profiles={a,b}.
func (c *Client) ClassURL(eventName string, profiles []string) string {
	base := strings.TrimSuffix(c.config.BaseURL, "/")
	path := "/api/" + url.PathEscape(c.config.APIVersion) + "/classes/" + url.PathEscape(eventName)
	escaped := make([]string, len(profiles))
	for i, p := range profiles {
		escaped[i] = url.QueryEscape(p)
	}
	return base + path + "?profiles=" + strings.Join(escaped, ",")
}

// FetchClass retrieves the schema for eventName. The body is returned
// verbatim. Transport failures and non-2xx responses are NETWORK errors.
func (c *Client) FetchClass(ctx context.Context, eventName string, profiles []string) ([]byte, error) {
	target := c.ClassURL(eventName, profiles)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeNetwork, "build registry request", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetch("error", 0, time.Since(start).Seconds())
		c.logger.Error().Err(err).Str("url", target).Msg("Registry request failed")
		return nil, apperrors.New(apperrors.CodeNetwork, "GET "+target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		c.metrics.RecordFetch("error", len(body), time.Since(start).Seconds())
		return nil, apperrors.New(apperrors.CodeNetwork, "read registry response", err)
	}
	c.metrics.RecordFetch(statusClass(resp.StatusCode), len(body), time.Since(start).Seconds())

	if int64(len(body)) > c.config.MaxBodyBytes {
		return nil, apperrors.Newf(apperrors.CodeNetwork, "read registry response",
			fmt.Sprintf("response exceeds %d bytes", c.config.MaxBodyBytes))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("url", target).
			Msg("Registry returned non-success status")
		return nil, apperrors.Newf(apperrors.CodeNetwork, "GET "+target,
			fmt.Sprintf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	c.logger.Info().
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("latency", time.Since(start)).
		Msg("Schema fetched")
	return body, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
