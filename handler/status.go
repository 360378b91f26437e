package handler

import (
	"net/http"
	"sync/atomic"

	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/store"
)

// StatusHandler serves GET /api/status: configuration and store
// connectivity, plus a lightweight request counter.
type StatusHandler struct {
	cfg      *config.Config
	store    *store.Client
	requests int64
}

// NewStatusHandler builds the status handler.
func NewStatusHandler(cfg *config.Config, s *store.Client) *StatusHandler {
	return &StatusHandler{cfg: cfg, store: s}
}

// CountRequest increments the lifetime request counter; the router
// calls this once per inbound request.
func (h *StatusHandler) CountRequest() {
	atomic.AddInt64(&h.requests, 1)
}

type statusPayload struct {
	Env           string            `json:"env"`
	IsConfigured  bool              `json:"isConfigured"`
	Store         store.HealthResult `json:"store"`
	RequestsTotal int64             `json:"requestsTotal"`
}

// Status serves GET /api/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	payload := statusPayload{
		Env:           h.cfg.Env,
		IsConfigured:  h.store.IsConfigured(),
		RequestsTotal: atomic.LoadInt64(&h.requests),
	}
	if payload.IsConfigured {
		payload.Store = h.store.HealthCheck(r.Context())
	}
	writeValue(w, http.StatusOK, payload, "", false)
}
