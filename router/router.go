// Package router wires the gateway's single HTTP entry point (C7):
// the middleware chain, the admin auth guard, brand extraction, the
// HTML alias table, and the API route table.
package router

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/brand"
	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/handler"
	appmw "github.com/zeventbooks/eventgateway/middleware"
	"github.com/zeventbooks/eventgateway/observability"
	"github.com/zeventbooks/eventgateway/html"
)

const routerVersion = "1"

// Handlers bundles every handler constructor result the router
// dispatches to, built once at startup by main and passed in whole.
type Handlers struct {
	Bundle    *handler.BundleHandlers
	Writer    *handler.WriterHandlers
	Status    *handler.StatusHandler
	Shortlink *handler.ShortlinkHandler
}

// htmlAlias maps a path to the page it renders.
var htmlAlias = map[string]html.PageType{
	"/":         html.Public,
	"/public":   html.Public,
	"/events":   html.Public,
	"/schedule": html.Public,
	"/calendar": html.Public,

	"/admin":     html.Admin,
	"/manage":    html.Admin,
	"/dashboard": html.Admin,
	"/create":    html.Admin,

	"/display": html.Display,
	"/tv":      html.Display,
	"/kiosk":   html.Display,
	"/screen":  html.Display,

	"/poster":  html.Poster,
	"/posters": html.Poster,
	"/flyers":  html.Poster,

	"/report":    html.Report,
	"/analytics": html.Report,
	"/reports":   html.Report,
	"/insights":  html.Report,
}

// adminGuardedPages are the HTML page types the admin auth guard also
// protects, beyond the API's /api/admin/* and adminBundle surface.
var adminGuardedPages = map[html.PageType]bool{
	html.Admin:  true,
	html.Report: true,
}

// NewRouter builds the configured chi router. metrics and logger are
// always present; metrics.Handler is mounted at /metrics.
func NewRouter(cfg *config.Config, appLogger zerolog.Logger, metrics *observability.Metrics, h Handlers) http.Handler {
	if cfg.AdminToken == "" && !cfg.IsDev() {
		appLogger.Warn().Msg("ADMIN_TOKEN is empty outside dev — admin routes are unauthenticated")
	}

	r := chi.NewRouter()

	r.Use(appmw.CORS)
	r.Use(appmw.SecurityHeaders)
	r.Use(appmw.RequestID)
	r.Use(mwRecover(appLogger))
	r.Use(mwRequestLogger(appLogger, metrics))
	r.Use(mwMaxBodySize(cfg.MaxBodyBytes))
	r.Use(mwRouterVersion)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			h.Status.CountRequest()
			next.ServeHTTP(w, req)
		})
	})
	r.Use(mwShortlinkQuery(h.Shortlink))

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Get("/healthz", healthHandler("ok"))
	r.Get("/ready", healthHandler("ready"))
	r.Get("/health", healthHandler("healthy"))
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Get("/api/status", h.Status.Status)

	r.Get("/api/events", h.Bundle.ListEvents)
	r.Get("/api/events/{id}", h.Bundle.GetEvent)
	r.Get("/api/events/{id}/publicBundle", h.Bundle.PublicBundle)
	r.Get("/api/events/{id}/displayBundle", h.Bundle.DisplayBundle)
	r.Get("/api/events/{id}/posterBundle", h.Bundle.PosterBundle)
	r.With(adminGuard(cfg)).Get("/api/events/{id}/adminBundle", h.Bundle.AdminBundle)

	r.With(adminGuard(cfg)).Post("/api/admin/events", h.Writer.CreateEvent)
	r.With(adminGuard(cfg)).Post("/api/admin/events/{id}/results", h.Writer.RecordResult)

	r.Get("/r", h.Shortlink.Redirect)
	r.Get("/redirect", h.Shortlink.Redirect)

	for path, page := range htmlAlias {
		page := page
		htmlHandler := htmlPageHandler(page)
		if adminGuardedPages[page] {
			r.With(adminGuard(cfg)).Get(path, htmlHandler)
			r.With(adminGuard(cfg)).Head(path, htmlHandler)
			continue
		}
		r.Get(path, htmlHandler)
		r.Head(path, htmlHandler)
	}

	return r
}

func healthHandler(status string) http.HandlerFunc {
	body := []byte(`{"status":"` + status + `","service":"eventgateway"}`)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func htmlPageHandler(page html.PageType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brandID := brandFromRequest(r)
		status, headers, body := html.Render(http.StatusOK, page, html.Vars{
			Title:   brand.Get(brandID).AppTitle,
			Page:    string(page),
			BrandID: brandID,
			EventID: r.URL.Query().Get("id"),
		})
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

// brandFromRequest resolves the brand for the router's own HTML
// dispatch, which doesn't go through the handler package: a valid
// ?brand= override, else a valid first path segment, else root. Unlike
// handler.brandFromRequest it validates the query value and also
// consults the path.
func brandFromRequest(r *http.Request) string {
	if b := r.URL.Query().Get("brand"); b != "" && brand.Valid(b) {
		return b
	}
	segment := firstPathSegment(r.URL.Path)
	if brand.Valid(segment) {
		return segment
	}
	return string(brand.Default)
}

func firstPathSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// adminGuard implements §4.7.1's ordered rule set.
func adminGuard(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.AdminToken == "" {
				next.ServeHTTP(w, r)
				return
			}
			if token, ok := bearerToken(r); ok && token == cfg.AdminToken {
				next.ServeHTTP(w, r)
				return
			}
			if r.URL.Query().Get("adminKey") == cfg.AdminToken {
				next.ServeHTTP(w, r)
				return
			}
			writeErrorEnvelope(w, apierr.New(apierr.Unauthorized, 401, "Missing or invalid authentication"))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	return strings.TrimPrefix(auth, prefix), true
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeRouterError(w, http.StatusNotFound, "Not Found", r.URL.Path, "")
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, POST, PUT, DELETE, OPTIONS")
	writeRouterError(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.URL.Path, "")
}

// writeErrorEnvelope writes the handler-level error shape
// ({ok:false, code, message, status, corrId?}), used for business
// errors raised inside guards and handlers (§4.8).
func writeErrorEnvelope(w http.ResponseWriter, err *apierr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_, _ = w.Write([]byte(
		`{"ok":false,"code":"` + string(err.Code) + `","message":"` + jsonEscape(err.Message) + `","status":` + strconv.Itoa(err.Status) + `}`,
	))
}

func jsonEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// routerErrorEnvelope is the pre-handler error shape ({ok:false, status,
// error, path?, timestamp, corrId?}), distinct from the handler-level
// envelope written by writeErrorEnvelope. §7/§8 fix this shape for
// unknown routes, disallowed methods, and panic recovery — cases the
// router rejects before a handler ever runs.
type routerErrorEnvelope struct {
	OK        bool   `json:"ok"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp"`
	CorrID    string `json:"corrId,omitempty"`
}

func writeRouterError(w http.ResponseWriter, status int, message, path, corrID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(routerErrorEnvelope{
		OK:        false,
		Status:    status,
		Error:     message,
		Path:      path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		CorrID:    corrID,
	})
}

// mwRecover catches panics, logs them with a stack trace, and responds
// with the router-level 500 envelope instead of chi's plain-text
// Recoverer output.
func mwRecover(appLogger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					corrID := apierr.CorrID("evt")
					appLogger.Error().
						Interface("panic", rec).
						Str("stack", string(debug.Stack())).
						Str("corrId", corrID).
						Str("path", r.URL.Path).
						Msg("panic recovered")
					writeRouterError(w, http.StatusInternalServerError, "Internal Server Error", "", corrID)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// mwShortlinkQuery dispatches any request carrying ?p=r or ?p=redirect
// straight to the shortlink handler, regardless of path — the
// query-driven alias alongside the literal /r and /redirect routes.
func mwShortlinkQuery(shortlinkHandler *handler.ShortlinkHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("p") {
			case "r", "redirect":
				shortlinkHandler.Redirect(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// mwRouterVersion attaches X-Router-Version to every response (§4.7
// step 7); X-Request-Id is already set by appmw.RequestID.
func mwRouterVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Router-Version", routerVersion)
		next.ServeHTTP(w, r)
	})
}

// mwMaxBodySize returns middleware that limits the request body size,
// adapted from the teacher's gateway body-limit middleware.
func mwMaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 1 * 1024 * 1024
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			max := maxBytes
			if v := os.Getenv("GATEWAY_MAX_BODY_BYTES"); v != "" {
				if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
					max = parsed
				}
			}
			if r.ContentLength > 0 && r.ContentLength > max {
				http.Error(w, `{"ok":false,"code":"BAD_INPUT","message":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

// mwRequestLogger logs each inbound request at debug and its
// completion at info, and records its
// duration/status against the gateway's metrics, adapted from the
// teacher's wrapped-response-writer request logger.
func mwRequestLogger(appLogger zerolog.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			appLogger.Debug().Str("method", r.Method).Str("url", r.URL.String()).Msg("inbound request")
			next.ServeHTTP(rw, r)
			duration := time.Since(start)

			route := routePattern(r)
			appLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", r.Header.Get("X-Request-Id")).
				Int("status", rw.Status()).
				Dur("duration", duration).
				Msg("request completed")

			metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rw.Status())).Inc()
			metrics.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
		})
	}
}

// routePattern returns the matched chi route pattern, falling back to
// the raw path for unmatched (404/405) requests so those still get a
// bounded metrics label.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}
