package main_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/handler"
	"github.com/zeventbooks/eventgateway/observability"
	"github.com/zeventbooks/eventgateway/router"
	"github.com/zeventbooks/eventgateway/shortlink"
	"github.com/zeventbooks/eventgateway/store"
	"github.com/zeventbooks/eventgateway/writer"
)

// Full end-to-end tests require a real spreadsheet backend and are
// skipped by default. To run them set RUN_GATEWAY_INTEGRATION=1 and
// point SHEETS_SPREADSHEET_ID, GOOGLE_CLIENT_EMAIL and
// GOOGLE_PRIVATE_KEY at a live sheet.
func TestIntegrationAgainstLiveStore(t *testing.T) {
	if os.Getenv("RUN_GATEWAY_INTEGRATION") != "1" {
		t.Skip("integration tests skipped; set RUN_GATEWAY_INTEGRATION=1 to run")
	}
	// placeholder: wire config.Load() against a live spreadsheet and
	// exercise create -> publicBundle -> recordResult -> adminBundle.
}

// fakeStore is an in-memory writer.Store, used to exercise the full
// router wiring (main's handler graph) without network dependencies.
type fakeStore struct {
	mu    sync.Mutex
	sheet map[string][][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{sheet: map[string][][]string{
		"EVENTS":     {{"id", "brandId", "templateId", "dataJson", "createdAtISO", "slug", "updatedAtISO"}},
		"ANALYTICS":  {{"ts", "eventId", "surface", "metric", "sponsorId", "value", "token", "userAgent", "sessionId", "visibleSponsorIds", "source", "env"}},
		"SHORTLINKS": {{"token", "targetUrl", "eventId", "sponsorId", "surface", "createdAt", "brandId"}},
	}}
}

func (f *fakeStore) GetValues(ctx context.Context, sheet, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.sheet[sheet]...), nil
}

func (f *fakeStore) Append(ctx context.Context, sheet, rng string, row []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheet[sheet] = append(f.sheet[sheet], row)
	return len(f.sheet[sheet]), nil
}

func (f *fakeStore) Update(ctx context.Context, sheet string, rowIndex1Based int, row []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheet[sheet][rowIndex1Based-1] = row
	return 1, nil
}

// TestGatewayEndToEndCreateBundleResult wires the same handler graph
// main builds and drives a full create -> publicBundle -> recordResult
// -> adminBundle round trip through the real router, with the
// spreadsheet adapter swapped for an in-memory fake.
func TestGatewayEndToEndCreateBundleResult(t *testing.T) {
	s := newFakeStore()
	logger := zerolog.Nop()
	cfg := &config.Config{Env: "dev", AdminToken: "s3cret", MaxBodyBytes: 1024 * 1024}

	locks := writer.NewKeyedMutex()
	creator := writer.NewCreator(s, locks, 200*time.Millisecond, logger)
	merger := writer.NewMerger(s, locks, 200*time.Millisecond, logger)

	h := router.Handlers{
		Bundle:    handler.NewBundleHandlers(s, logger),
		Writer:    handler.NewWriterHandlers(creator, merger),
		Status:    handler.NewStatusHandler(cfg, store.NewClient(cfg, logger, nil, "")),
		Shortlink: handler.NewShortlinkHandler(shortlink.New(s, logger, "dev")),
	}
	r := router.NewRouter(cfg, logger, observability.NewMetrics(), h)

	createReq := httptest.NewRequest(http.MethodPost, "/api/admin/events", strings.NewReader(
		`{"name":"Trivia Night","startDateISO":"2026-08-15","venue":"The Hall","brandId":"abc","templateId":"trivia"}`,
	))
	createReq.Header.Set("Authorization", "Bearer s3cret")
	createReq.Header.Set("Content-Type", "application/json")
	createRec := httptest.NewRecorder()
	r.ServeHTTP(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", createRec.Code, createRec.Body.String())
	}

	var created struct {
		Value struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Value.ID == "" {
		t.Fatalf("create response missing event id: %s", createRec.Body.String())
	}

	bundleReq := httptest.NewRequest(http.MethodGet, "/api/events/"+created.Value.ID+"/publicBundle", nil)
	bundleRec := httptest.NewRecorder()
	r.ServeHTTP(bundleRec, bundleReq)
	if bundleRec.Code != http.StatusOK {
		t.Fatalf("publicBundle: status = %d, body = %s", bundleRec.Code, bundleRec.Body.String())
	}

	resultReq := httptest.NewRequest(http.MethodPost, "/api/admin/events/"+created.Value.ID+"/results", strings.NewReader(
		`{"standings":[{"rank":1,"name":"Team Rocket","score":42}]}`,
	))
	resultReq.Header.Set("Authorization", "Bearer s3cret")
	resultReq.Header.Set("Content-Type", "application/json")
	resultRec := httptest.NewRecorder()
	r.ServeHTTP(resultRec, resultReq)
	if resultRec.Code != http.StatusOK {
		t.Fatalf("recordResult: status = %d, body = %s", resultRec.Code, resultRec.Body.String())
	}

	adminReq := httptest.NewRequest(http.MethodGet, "/api/events/"+created.Value.ID+"/adminBundle", nil)
	adminReq.Header.Set("Authorization", "Bearer s3cret")
	adminRec := httptest.NewRecorder()
	r.ServeHTTP(adminRec, adminReq)
	if adminRec.Code != http.StatusOK {
		t.Fatalf("adminBundle: status = %d, body = %s", adminRec.Code, adminRec.Body.String())
	}
	if !strings.Contains(adminRec.Body.String(), "Team Rocket") {
		t.Fatalf("adminBundle does not reflect recorded result: %s", adminRec.Body.String())
	}
}
