package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/brand"
	"github.com/zeventbooks/eventgateway/bundle"
	"github.com/zeventbooks/eventgateway/eventmodel"
	"github.com/zeventbooks/eventgateway/store"
	"github.com/zeventbooks/eventgateway/writer"
)

// cacheControl is the per-surface response caching directive (§4.8).
var cacheControl = map[string]string{
	"public":  "private, max-age=60, stale-while-revalidate=300",
	"display": "private, max-age=30, stale-while-revalidate=120",
	"poster":  "private, max-age=300, stale-while-revalidate=600",
	"admin":   "no-cache",
}

// bundleCacheTTL bounds how long a cached ETag is trusted before a
// request falls through to a fresh lookup regardless of If-None-Match.
const bundleCacheTTL = 5 * time.Minute

// BundleCache is the optional read-through ETag cache for bundle
// responses: a conditional GET whose If-None-Match matches the cached
// tag is answered with 304 before the store is ever touched.
// redisclient.Client implements this; nil means no cache configured.
type BundleCache interface {
	GetBundleETag(ctx context.Context, key string) (string, bool)
	SetBundleETag(ctx context.Context, key, etag string, ttl time.Duration) error
}

// BundleHandlers serves the four bundle projections plus the plain
// event get/list endpoints.
type BundleHandlers struct {
	store  writer.Store
	logger zerolog.Logger
	cache  BundleCache
}

// NewBundleHandlers builds the bundle handler set.
func NewBundleHandlers(s writer.Store, logger zerolog.Logger) *BundleHandlers {
	return &BundleHandlers{store: s, logger: logger.With().Str("component", "bundle_handler").Logger()}
}

// WithCache attaches the read-through bundle ETag cache. Optional:
// skipped when nil, in which case every request recomputes its tag.
func (h *BundleHandlers) WithCache(c BundleCache) *BundleHandlers {
	h.cache = c
	return h
}

// lookup resolves {id} by id, falling back to a slug lookup within
// brand for backward compatibility with old URLs (§4.8 step 2).
func (h *BundleHandlers) lookup(ctx context.Context, id, brandID string) (*eventmodel.Event, *apierr.Error) {
	loc, err := writer.FindByID(ctx, h.store, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if loc == nil {
		loc, err = writer.FindBySlug(ctx, h.store, brandID, id)
		if err != nil {
			return nil, storeErr(err)
		}
	}
	if loc == nil {
		return nil, apierr.New(apierr.EventNotFound, 404, "event "+id+" was not found")
	}
	return loc.Event, nil
}

func storeErr(err error) *apierr.Error {
	if serr, ok := err.(*store.Error); ok {
		return apierr.FromStoreError(serr, apierr.EventNotFound)
	}
	return apierr.NewInternal("evt", err.Error())
}

func brandFromRequest(r *http.Request) string {
	if b := r.URL.Query().Get("brand"); b != "" {
		return b
	}
	return string(brand.Default)
}

// cachedNotModified answers a conditional GET from the bundle cache
// without touching the store, returning true when it did. A miss (no
// cache configured, no If-None-Match, or a stale/absent cached tag)
// leaves the response untouched for the caller to compute normally.
func (h *BundleHandlers) cachedNotModified(w http.ResponseWriter, r *http.Request, cacheKey string) bool {
	inm := r.Header.Get("If-None-Match")
	if inm == "" || h.cache == nil {
		return false
	}
	cached, ok := h.cache.GetBundleETag(r.Context(), cacheKey)
	if !ok || cached != inm {
		return false
	}
	writeNotModified(w, cached)
	return true
}

// respondBundle computes value's ETag, refreshes the cache entry for
// cacheKey, and writes either 304 or the full payload.
func (h *BundleHandlers) respondBundle(w http.ResponseWriter, r *http.Request, surface, cacheKey string, value interface{}) {
	tag, err := bundle.ETag(value)
	if err != nil {
		writeError(w, apierr.NewInternal("evt", "failed to compute etag"))
		return
	}
	w.Header().Set("Cache-Control", cacheControl[surface])
	if h.cache != nil {
		if serr := h.cache.SetBundleETag(r.Context(), cacheKey, tag, bundleCacheTTL); serr != nil {
			h.logger.Warn().Err(serr).Str("cacheKey", cacheKey).Msg("failed to cache bundle etag")
		}
	}
	if r.Header.Get("If-None-Match") == tag {
		writeNotModified(w, tag)
		return
	}
	writeValue(w, http.StatusOK, value, tag, false)
}

// PublicBundle serves GET /api/events/{id}/publicBundle.
func (h *BundleHandlers) PublicBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cacheKey := "public:" + id
	if h.cachedNotModified(w, r, cacheKey) {
		return
	}
	brandID := brandFromRequest(r)
	ev, err := h.lookup(r.Context(), id, brandID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondBundle(w, r, "public", cacheKey, bundle.ComposePublic(ev, brandID))
}

// DisplayBundle serves GET /api/events/{id}/displayBundle.
func (h *BundleHandlers) DisplayBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cacheKey := "display:" + id
	if h.cachedNotModified(w, r, cacheKey) {
		return
	}
	brandID := brandFromRequest(r)
	ev, err := h.lookup(r.Context(), id, brandID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondBundle(w, r, "display", cacheKey, bundle.ComposeDisplay(ev, brandID))
}

// PosterBundle serves GET /api/events/{id}/posterBundle.
func (h *BundleHandlers) PosterBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cacheKey := "poster:" + id
	if h.cachedNotModified(w, r, cacheKey) {
		return
	}
	brandID := brandFromRequest(r)
	ev, err := h.lookup(r.Context(), id, brandID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondBundle(w, r, "poster", cacheKey, bundle.ComposePoster(ev, brandID))
}

// AdminBundle serves GET /api/events/{id}/adminBundle (auth guarded by
// the router's admin middleware). Diagnostics embed the current time,
// so a cache hit here is rare — the cache is still consulted and
// refreshed for consistency with the other surfaces.
func (h *BundleHandlers) AdminBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cacheKey := "admin:" + id
	if h.cachedNotModified(w, r, cacheKey) {
		return
	}
	brandID := brandFromRequest(r)
	ev, err := h.lookup(r.Context(), id, brandID)
	if err != nil {
		writeError(w, err)
		return
	}

	shortlinksCount, syncedAt := h.shortlinksDiagnostics(r.Context(), id)
	diag := bundle.Diagnostics{
		FormStatus:      "ok",
		ShortlinksCount: shortlinksCount,
		LastSyncedAt:    syncedAt,
		Warnings:        bundle.ComputeWarnings(ev),
	}
	h.respondBundle(w, r, "admin", cacheKey, bundle.ComposeAdmin(ev, brandID, diag))
}

func (h *BundleHandlers) shortlinksDiagnostics(ctx context.Context, eventID string) (int, time.Time) {
	rows, err := h.store.GetValues(ctx, "SHORTLINKS", "A:G")
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read shortlinks for admin diagnostics")
		return 0, time.Now().UTC()
	}
	count := 0
	for _, row := range rows {
		if len(row) > 2 && row[2] == eventID {
			count++
		}
	}
	return count, time.Now().UTC()
}

// GetEvent serves GET /api/events/{id}: the raw event, id-then-slug.
func (h *BundleHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cacheKey := "event:" + id
	if h.cachedNotModified(w, r, cacheKey) {
		return
	}
	brandID := brandFromRequest(r)
	ev, err := h.lookup(r.Context(), id, brandID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondBundle(w, r, "public", cacheKey, ev)
}

// ListEvents serves GET /api/events: every event for the request's brand.
func (h *BundleHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	brandID := brandFromRequest(r)
	all, err := writer.ScanEvents(r.Context(), h.store)
	if err != nil {
		writeError(w, storeErr(err))
		return
	}
	events := make([]*eventmodel.Event, 0, len(all))
	for _, l := range all {
		if l.Event.BrandID == brandID {
			events = append(events, l.Event)
		}
	}
	writeValue(w, http.StatusOK, events, "", false)
}
