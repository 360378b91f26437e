// Package handler implements the HTTP handlers (C8): bundle
// projections with ETag negotiation, the create/record-result writer
// endpoints, the status endpoint, and the shortlink redirect.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zeventbooks/eventgateway/apierr"
)

// successEnvelope is the {ok:true, ...} shape (§6).
type successEnvelope struct {
	OK          bool        `json:"ok"`
	Value       interface{} `json:"value,omitempty"`
	ETag        string      `json:"etag,omitempty"`
	NotModified bool        `json:"notModified,omitempty"`
	Duplicate   bool        `json:"duplicate,omitempty"`
}

// errorEnvelope is the {ok:false, ...} shape (§6).
type errorEnvelope struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	CorrID  string `json:"corrId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders an *apierr.Error as the standard error envelope.
func writeError(w http.ResponseWriter, err *apierr.Error) {
	status := err.Status
	if status == 0 {
		status = 500
	}
	writeJSON(w, status, errorEnvelope{
		OK: false, Code: string(err.Code), Message: err.Message, Status: status, CorrID: err.CorrID,
	})
}

// writeValue renders a successful value, with etag/duplicate flags
// attached as applicable.
func writeValue(w http.ResponseWriter, status int, value interface{}, etag string, duplicate bool) {
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	writeJSON(w, status, successEnvelope{OK: true, Value: value, ETag: etag, Duplicate: duplicate})
}

// writeNotModified renders the 304 conditional-GET response (§6): no
// value, just the confirming etag.
func writeNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusNotModified, successEnvelope{OK: true, NotModified: true, ETag: etag})
}
