package handler

import (
	"net/http"

	"github.com/zeventbooks/eventgateway/html"
	"github.com/zeventbooks/eventgateway/shortlink"
)

// ShortlinkHandler serves the /r, /redirect routes.
type ShortlinkHandler struct {
	resolver *shortlink.Resolver
}

// NewShortlinkHandler builds the shortlink handler.
func NewShortlinkHandler(r *shortlink.Resolver) *ShortlinkHandler {
	return &ShortlinkHandler{resolver: r}
}

// Redirect serves the shortlink token lookup and 302 (§4.6/§6).
func (h *ShortlinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	result := h.resolver.Resolve(r.Context(), token, r.UserAgent(), r.Referer())
	if !result.Found {
		status, headers, body := html.NotFoundShell()
		writeHTML(w, status, headers, body)
		return
	}
	if result.TargetCorrupt {
		status, headers, body := html.ServerErrorShell()
		writeHTML(w, status, headers, body)
		return
	}

	echo := result.Token
	if len(echo) > 8 {
		echo = echo[:8]
	}
	echo += "..."
	w.Header().Set("Location", result.TargetURL)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("X-Shortlink-Token", echo)
	w.WriteHeader(http.StatusFound)
}

func writeHTML(w http.ResponseWriter, status int, headers map[string]string, body []byte) {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
