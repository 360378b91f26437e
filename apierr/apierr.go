// Package apierr defines the closed set of API error codes returned in
// the gateway's JSON error envelope, and the total-function mapping
// from store adapter error kinds to that set.
package apierr

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/zeventbooks/eventgateway/store"
)

// Code is one of the closed set of envelope error codes.
type Code string

const (
	BadInput              Code = "BAD_INPUT"
	Unauthorized          Code = "UNAUTHORIZED"
	Forbidden             Code = "FORBIDDEN"
	NotFound              Code = "NOT_FOUND"
	EventNotFound         Code = "EVENT_NOT_FOUND"
	ShortlinkNotFound     Code = "SHORTLINK_NOT_FOUND"
	ShortlinkInvalidToken Code = "SHORTLINK_INVALID_TOKEN"
	ShortlinkInvalidURL   Code = "SHORTLINK_INVALID_URL"
	NotConfigured         Code = "NOT_CONFIGURED"
	RateLimited           Code = "RATE_LIMITED"
	Timeout               Code = "TIMEOUT"
	Busy                  Code = "BUSY"
	Internal              Code = "INTERNAL"
	ParseError            Code = "PARSE_ERROR"
	UpstreamTransient     Code = "UPSTREAM_TRANSIENT"
	AuthFailed            Code = "AUTH_FAILED"
)

// Error is the gateway's API-facing error, carrying everything the
// envelope needs. It implements the error interface so handlers can
// use errors.As against it.
type Error struct {
	Code    Code
	Message string
	Status  int
	CorrID  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error directly (used by handler-level validation).
func New(code Code, status int, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// NewInternal builds a 500 INTERNAL error with a fresh correlation id,
// per the "<prefix>-<base36 time>-<6 random>" shape used throughout
// the API (§7).
func NewInternal(prefix, message string) *Error {
	return &Error{Code: Internal, Status: 500, Message: message, CorrID: CorrID(prefix)}
}

// CorrID mints a correlation id of the shape <prefix>-<base36 time>-<6 random>.
func CorrID(prefix string) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 6)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, strconv.FormatInt(time.Now().UnixMilli(), 36), string(b))
}

// FromStoreError is the total function mapping store adapter error
// kinds to API errors, per §7's table. notFoundCode lets the caller
// pick between NOT_FOUND and EVENT_NOT_FOUND for the NOT_FOUND kind,
// since the same adapter kind serves both bundle lookups and generic
// range reads.
func FromStoreError(err *store.Error, notFoundCode Code) *Error {
	if err == nil {
		return nil
	}
	switch err.Kind {
	case store.NotConfigured:
		return &Error{Code: NotConfigured, Status: 503, Message: "store adapter is not configured"}
	case store.Unauthorized:
		return &Error{Code: Unauthorized, Status: 401, Message: "store rejected credentials"}
	case store.NotFound:
		code := notFoundCode
		if code == "" {
			code = NotFound
		}
		return &Error{Code: code, Status: 404, Message: err.Message}
	case store.RateLimited:
		return &Error{Code: RateLimited, Status: 429, Message: "store rate limit exceeded"}
	case store.UpstreamTransient:
		return &Error{Code: Internal, Status: 500, Message: "upstream store is unavailable", CorrID: CorrID("evt")}
	case store.BadRange:
		return &Error{Code: Internal, Status: 500, Message: "malformed store range", CorrID: CorrID("evt")}
	case store.AuthFailed:
		return &Error{Code: Internal, Status: 500, Message: "store authentication failed", CorrID: CorrID("evt")}
	default:
		return &Error{Code: Internal, Status: 500, Message: "unexpected store error", CorrID: CorrID("evt")}
	}
}
