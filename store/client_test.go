package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/store"
)

type fakeTokens struct{}

func (fakeTokens) AccessToken(ctx context.Context) (string, error) { return "tok", nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *store.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		SheetsSpreadsheetID: "sheet-1",
		GoogleClientEmail:   "svc@example.com",
		GooglePrivateKey:    "fake",
		StoreTimeout:        5 * time.Second,
	}
	return store.NewClient(cfg, zerolog.Nop(), fakeTokens{}, srv.URL)
}

func TestGetValuesSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":  "EVENTS!A1:G2",
			"values": [][]string{{"id", "brandId"}, {"evt-1", "abc"}},
		})
	})

	rows, err := c.GetValues(context.Background(), "EVENTS", "A1:G2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "evt-1" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestGetValuesRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"range": "EVENTS!A1:A1", "values": [][]string{{"ok"}}})
	})

	_, err := c.GetValues(context.Background(), "EVENTS", "A1:A1")
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGetValuesDoesNotRetryNotFound(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetValues(context.Background(), "EVENTS", "Z1:Z1")
	var serr *store.Error
	if err == nil {
		t.Fatal("expected error")
	}
	if se, ok := err.(*store.Error); ok {
		serr = se
	} else {
		t.Fatalf("expected *store.Error, got %T", err)
	}
	if serr.Kind != store.NotFound {
		t.Fatalf("expected NOT_FOUND, got %s", serr.Kind)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-retryable error, got %d", calls)
	}
}

func TestUpdateRejectsHeaderRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for an invalid row index")
	})
	_, err := c.Update(context.Background(), "EVENTS", 1, []string{"x"})
	serr, ok := err.(*store.Error)
	if !ok || serr.Kind != store.BadRange {
		t.Fatalf("expected BAD_RANGE for row 1, got %v", err)
	}
}

func TestNotConfiguredShortCircuits(t *testing.T) {
	cfg := &config.Config{}
	c := store.NewClient(cfg, zerolog.Nop(), fakeTokens{}, "http://unused.invalid")
	if c.IsConfigured() {
		t.Fatal("expected IsConfigured false")
	}
	_, err := c.GetValues(context.Background(), "EVENTS", "A1:A1")
	serr, ok := err.(*store.Error)
	if !ok || serr.Kind != store.NotConfigured {
		t.Fatalf("expected NOT_CONFIGURED, got %v", err)
	}
}
