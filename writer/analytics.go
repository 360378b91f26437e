package writer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/observability"
)

const analyticsRange = "A:L"

// AnalyticsInput is one analytics side-effect to append.
type AnalyticsInput struct {
	EventID           string
	Surface           string
	Metric            string
	SponsorID         string
	Value             string
	Token             string
	UserAgent         string
	SessionID         string
	VisibleSponsorIDs string
	Source            string
	Env               string
	Timestamp         time.Time
}

// Appender is the best-effort analytics appender (C5): failures are
// logged at warn and never propagated to the caller.
type Appender struct {
	store   Store
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewAppender builds an analytics appender.
func NewAppender(s Store, logger zerolog.Logger) *Appender {
	return &Appender{store: s, logger: logger.With().Str("component", "analytics").Logger()}
}

// WithMetrics attaches the gateway's metrics registry so failed
// appends are counted. Optional: skipped when nil.
func (a *Appender) WithMetrics(m *observability.Metrics) *Appender {
	a.metrics = m
	return a
}

func (in AnalyticsInput) valid() bool {
	return in.EventID != "" && in.Surface != "" && in.Metric != ""
}

func (in AnalyticsInput) row() []string {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	userAgent := in.UserAgent
	if len(userAgent) > 200 {
		userAgent = userAgent[:200]
	}
	cells := []string{
		ts.Format(time.RFC3339),
		in.EventID,
		in.Surface,
		in.Metric,
		in.SponsorID,
		in.Value,
		in.Token,
		userAgent,
		in.SessionID,
		in.VisibleSponsorIDs,
		in.Source,
		in.Env,
	}
	for i, c := range cells {
		cells[i] = Sanitize(c)
	}
	return cells
}

// Append validates and appends one analytics record. Append never
// returns an error a caller should surface to its own requester — the
// error is informational only, for callers that want to log it
// themselves.
func (a *Appender) Append(ctx context.Context, in AnalyticsInput) error {
	if !in.valid() {
		a.logger.Warn().Str("type", "analytics_invalid").Msg("dropped analytics record missing required fields")
		return nil
	}
	if _, err := a.store.Append(ctx, "ANALYTICS", analyticsRange, in.row()); err != nil {
		a.logger.Warn().Str("type", "analytics_append_failed").Err(err).
			Str("eventId", in.EventID).Str("metric", in.Metric).
			Msg("analytics append failed, discarding")
		if a.metrics != nil {
			a.metrics.AnalyticsFailed.Inc()
		}
		return err
	}
	return nil
}

// AppendBatch appends a series of analytics records sequentially,
// continuing past individual failures, and reports how many were
// appended (records dropped for missing fields are not counted)
// plus the first error encountered (for the caller's own logging; the
// batch as a whole is still best-effort).
func (a *Appender) AppendBatch(ctx context.Context, ins []AnalyticsInput) (successCount int, firstErr error) {
	for _, in := range ins {
		if err := a.Append(ctx, in); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !in.valid() {
			continue
		}
		successCount++
	}
	return successCount, firstErr
}
