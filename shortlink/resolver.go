// Package shortlink implements the token → target-URL resolver (C6):
// a linear scan of the SHORTLINKS sheet, scheme-validated 302
// semantics, and a fire-and-forget analytics side effect that must
// never delay the redirect.
package shortlink

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/observability"
	"github.com/zeventbooks/eventgateway/writer"
)

const (
	minTokenLen     = 4
	maxTokenLen     = 64
	analyticsRange  = "A:F"
	analyticsWindow = 5 * time.Second
)

// Result is the outcome of resolving a shortlink token.
type Result struct {
	// Found is false when the token is malformed or unmatched; the
	// caller should render the 404 HTML shell.
	Found bool
	// TargetCorrupt is true when a matching row's targetUrl fails
	// scheme validation; the caller should render the 500 HTML shell.
	TargetCorrupt bool
	TargetURL     string
	Token         string
}

// Resolver is the shortlink resolver.
type Resolver struct {
	store   writer.Store
	logger  zerolog.Logger
	env     string
	metrics *observability.Metrics
}

// New builds a shortlink resolver. env is the analytics env column
// (dev/stg/prod), matching the writer package's convention.
func New(s writer.Store, logger zerolog.Logger, env string) *Resolver {
	return &Resolver{store: s, logger: logger.With().Str("component", "shortlink").Logger(), env: env}
}

// WithMetrics attaches the gateway's metrics registry so failed
// click-analytics appends are counted. Optional: skipped when nil.
func (r *Resolver) WithMetrics(m *observability.Metrics) *Resolver {
	r.metrics = m
	return r
}

// Resolve looks up token, fires the best-effort analytics append in
// the background (bounded by its own 5s window, not the request's
// context), and reports what the caller should do with the response.
func (r *Resolver) Resolve(ctx context.Context, token string, userAgent, referer string) Result {
	if len(token) < minTokenLen || len(token) > maxTokenLen {
		return Result{Found: false}
	}

	rows, err := r.store.GetValues(ctx, "SHORTLINKS", "A:G")
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to read shortlinks sheet")
		return Result{Found: false}
	}
	if len(rows) > 0 && len(rows[0]) > 0 && strings.ToLower(rows[0][0]) == "token" {
		rows = rows[1:]
	}

	var match []string
	for _, row := range rows {
		if len(row) > 0 && row[0] == token {
			match = row
			break
		}
	}
	if match == nil {
		return Result{Found: false}
	}

	targetURL := cell(match, 1)
	eventID := cell(match, 2)
	sponsorID := cell(match, 3)
	surface := cell(match, 4)

	parsed, perr := url.Parse(targetURL)
	if perr != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Result{Found: true, TargetCorrupt: true, Token: token}
	}

	go r.appendClickAnalytics(eventID, sponsorID, surface, token, userAgent, referer)

	return Result{Found: true, TargetURL: targetURL, Token: token}
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// appendClickAnalytics writes the legacy 6-column ANALYTICS row on a
// background context, deliberately detached from the request's
// context so client disconnect doesn't cancel it (§5 cancellation
// semantics for fire-and-forget work).
func (r *Resolver) appendClickAnalytics(eventID, sponsorID, surface, token, userAgent, referer string) {
	ctx, cancel := context.WithTimeout(context.Background(), analyticsWindow)
	defer cancel()

	if len(userAgent) > 200 {
		userAgent = userAgent[:200]
	}
	if len(referer) > 200 {
		referer = referer[:200]
	}
	detail, _ := json.Marshal(map[string]string{
		"token":     token,
		"userAgent": userAgent,
		"referer":   referer,
	})

	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		"shortlink_click",
		eventID,
		sponsorID,
		surface,
		string(detail),
	}
	for i, c := range row {
		row[i] = writer.Sanitize(c)
	}

	if _, err := r.store.Append(ctx, "ANALYTICS", analyticsRange, row); err != nil {
		r.logger.Warn().Err(err).Str("token", token).Msg("shortlink click analytics append failed")
		if r.metrics != nil {
			r.metrics.AnalyticsFailed.Inc()
		}
	}
}
