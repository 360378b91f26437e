// Package store is the spreadsheet-backed store adapter (C2): a typed
// read/batch-read/append/update client over a remote key-value-ish
// range API, with service-account token auth, bounded retries on
// transient classes, and structured error logging.
package store

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/observability"
)

// TokenSource mints the bearer token the adapter presents to the
// store's identity-gated API. Implemented by sheetsauth.Provider (C1).
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client is the store adapter. One Client is shared across the
// process; its transport is built once so every call reuses pooled
// connections, the same posture as the teacher's shared connection
// pool for upstream provider calls.
type Client struct {
	httpClient    *http.Client
	tokens        TokenSource
	logger        zerolog.Logger
	spreadsheetID string
	baseURL       string
	timeout       time.Duration
	configured    bool
	metrics       *observability.Metrics
}

// WithMetrics attaches the gateway's metrics registry so store calls
// report their duration and error kind. Optional: a Client with no
// metrics attached simply skips recording.
func (c *Client) WithMetrics(m *observability.Metrics) *Client {
	c.metrics = m
	return c
}

// NewClient builds a store adapter client. baseURL defaults to the
// conventional v4 spreadsheets values API root when empty; it is
// overridable for tests against an httptest.Server.
func NewClient(cfg *config.Config, logger zerolog.Logger, tokens TokenSource, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	}

	transport := &http.Transport{
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Client{
		httpClient:    &http.Client{Transport: transport},
		tokens:        tokens,
		logger:        logger.With().Str("component", "store").Logger(),
		spreadsheetID: cfg.SheetsSpreadsheetID,
		baseURL:       baseURL,
		timeout:       cfg.StoreTimeout,
		configured:    cfg.IsConfigured(),
	}
}

// IsConfigured reports whether credentials and a spreadsheet id are
// present, so handlers can fail fast with 503 NOT_CONFIGURED.
func (c *Client) IsConfigured() bool {
	return c.configured
}

// HealthResult is the outcome of a trivial connectivity probe.
type HealthResult struct {
	Connected bool
	LatencyMs int64
	Error     string
}

// HealthCheck probes a trivial read against EVENTS!A1:A1.
func (c *Client) HealthCheck(ctx context.Context) HealthResult {
	start := time.Now()
	_, err := c.GetValues(ctx, "EVENTS", "A1:A1")
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthResult{Connected: false, LatencyMs: latency, Error: err.Error()}
	}
	return HealthResult{Connected: true, LatencyMs: latency}
}

// valueRange mirrors the wire shape of a single range read/write.
type valueRange struct {
	Range  string          `json:"range"`
	Values [][]string      `json:"values"`
}

type batchGetResponse struct {
	ValueRanges []valueRange `json:"valueRanges"`
}

type updateResponse struct {
	UpdatedRows int `json:"updatedRows"`
}

// GetValues reads a rectangular range; by convention the first row is
// the header.
func (c *Client) GetValues(ctx context.Context, sheet, rng string) ([][]string, error) {
	if !c.configured {
		return nil, &Error{Kind: NotConfigured, Message: "store adapter has no credentials configured"}
	}
	var out valueRange
	if err := c.doRetried(ctx, "getValues", "GET", c.rangeURL(sheet, rng), nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// BatchGet reads several ranges in one round-trip.
func (c *Client) BatchGet(ctx context.Context, sheet string, ranges []string) ([][][]string, error) {
	if !c.configured {
		return nil, &Error{Kind: NotConfigured, Message: "store adapter has no credentials configured"}
	}
	u := fmt.Sprintf("%s/%s/values:batchGet", c.baseURL, c.spreadsheetID)
	q := make([]string, 0, len(ranges))
	for _, r := range ranges {
		q = append(q, fmt.Sprintf("ranges=%s!%s", sheet, r))
	}
	full := u + "?" + joinQuery(q)

	var resp batchGetResponse
	if err := c.doRetried(ctx, "batchGet", "GET", full, nil, &resp); err != nil {
		return nil, err
	}
	results := make([][][]string, len(resp.ValueRanges))
	for i, vr := range resp.ValueRanges {
		results[i] = vr.Values
	}
	return results, nil
}

// Append writes a single row at the next empty slot of the named
// range and returns the number of rows written.
func (c *Client) Append(ctx context.Context, sheet, rng string, row []string) (int, error) {
	if !c.configured {
		return 0, &Error{Kind: NotConfigured, Message: "store adapter has no credentials configured"}
	}
	body := valueRange{Range: sheet + "!" + rng, Values: [][]string{row}}
	u := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW", c.baseURL, c.spreadsheetID, sheet+"!"+rng)

	var resp updateResponse
	if err := c.doRetried(ctx, "append", "POST", u, body, &resp); err != nil {
		return 0, err
	}
	if resp.UpdatedRows == 0 {
		resp.UpdatedRows = 1
	}
	return resp.UpdatedRows, nil
}

// Update overwrites a specific 1-based row (row 1 is the header; data
// starts at row 2).
func (c *Client) Update(ctx context.Context, sheet string, rowIndex1Based int, row []string) (int, error) {
	if !c.configured {
		return 0, &Error{Kind: NotConfigured, Message: "store adapter has no credentials configured"}
	}
	if rowIndex1Based < 2 {
		return 0, &Error{Kind: BadRange, Message: "row index must address a data row (>=2)"}
	}
	rng := fmt.Sprintf("A%d:Z%d", rowIndex1Based, rowIndex1Based)
	body := valueRange{Range: sheet + "!" + rng, Values: [][]string{row}}
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", c.baseURL, c.spreadsheetID, sheet+"!"+rng)

	var resp updateResponse
	if err := c.doRetried(ctx, "update", "PUT", u, body, &resp); err != nil {
		return 0, err
	}
	if resp.UpdatedRows == 0 {
		resp.UpdatedRows = 1
	}
	return resp.UpdatedRows, nil
}

func joinQuery(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "&"
		}
		out += p
	}
	return out
}

func (c *Client) rangeURL(sheet, rng string) string {
	return fmt.Sprintf("%s/%s/values/%s", c.baseURL, c.spreadsheetID, sheet+"!"+rng)
}

// doRetried performs one logical operation, making at most 3 attempts
// in all for the transient error classes, with exponential backoff
// (base 1s, cap 16s) plus full jitter between them, per §4.2/§7.
func (c *Client) doRetried(ctx context.Context, operation, method, url string, reqBody, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	attempt := func() (struct{}, error) {
		err := c.doOnce(ctx, method, url, reqBody, out)
		if err == nil {
			return struct{}{}, nil
		}
		if serr, ok := err.(*Error); ok && serr.Kind.Retryable() {
			return struct{}{}, err
		}
		// Non-retryable: wrap as a permanent backoff error so the
		// library stops immediately instead of burning attempts.
		return struct{}{}, backoff.Permanent(err)
	}

	retries := 0
	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(jitteredBackoff{base: &backoff.ExponentialBackOff{
			InitialInterval: time.Second,
			Multiplier:      2,
			MaxInterval:     16 * time.Second,
		}}),
		backoff.WithMaxTries(3),
		backoff.WithNotify(func(err error, d time.Duration) {
			retries++
			c.logger.Warn().
				Str("type", "store_retry").
				Err(err).
				Dur("backoff", d).
				Int("retries", retries).
				Msg("store call failed, retrying")
		}),
	)
	if c.metrics != nil {
		c.metrics.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if serr, ok := err.(*Error); ok {
			serr.Retries = retries
			c.logger.Error().
				Str("type", "store_error").
				Str("code", string(serr.Kind)).
				Str("message", serr.Message).
				Int("retries", serr.Retries).
				Int64("latencyMs", time.Since(start).Milliseconds()).
				Msg("store call failed")
			if c.metrics != nil {
				c.metrics.StoreErrors.WithLabelValues(string(serr.Kind)).Inc()
			}
			return serr
		}
		if c.metrics != nil {
			c.metrics.StoreErrors.WithLabelValues(string(Internal)).Inc()
		}
		return &Error{Kind: Internal, Message: err.Error(), Retries: retries}
	}
	return nil
}

// jitteredBackoff wraps an ExponentialBackOff and applies full jitter
// to each computed delay: the v5 library's own jitter is deterministic
// per the documented algorithm, but §4.2 calls for full jitter, so the
// delay is re-rolled uniformly in [0, d).
type jitteredBackoff struct {
	base backoff.BackOff
}

func (j jitteredBackoff) NextBackOff() time.Duration {
	d := j.base.NextBackOff()
	if d <= 0 {
		return d
	}
	return time.Duration(rand.Int63n(int64(d)))
}

func (j jitteredBackoff) Reset() {
	j.base.Reset()
}

func (c *Client) doOnce(ctx context.Context, method, url string, reqBody, out interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		if serr, ok := err.(*Error); ok {
			return serr
		}
		return &Error{Kind: UpstreamTransient, Message: "failed to obtain access token"}
	}

	var bodyReader io.Reader
	if reqBody != nil {
		data, merr := json.Marshal(reqBody)
		if merr != nil {
			return &Error{Kind: Internal, Message: "failed to encode request body"}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return &Error{Kind: Internal, Message: "failed to build request"}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: UpstreamTransient, Message: "store call timed out"}
		}
		return &Error{Kind: UpstreamTransient, Message: "network error calling store"}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &Error{Kind: kindFromStatus(resp.StatusCode), Message: fmt.Sprintf("store responded %d", resp.StatusCode)}
	}

	if out != nil {
		if derr := json.NewDecoder(resp.Body).Decode(out); derr != nil {
			return &Error{Kind: Internal, Message: "failed to decode store response"}
		}
	}
	return nil
}
