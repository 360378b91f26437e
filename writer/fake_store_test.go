package writer_test

import (
	"context"
	"sync"

	"github.com/zeventbooks/eventgateway/store"
)

// fakeStore is an in-memory Store for writer package tests: each sheet
// ("EVENTS", "ANALYTICS", "SHORTLINKS") modeled as a slice of rows.
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
	return 1, nil
}

func (f *fakeStore) Update(ctx context.Context, sheet string, rowIndex1Based int, row []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rowIndex1Based < 2 || rowIndex1Based > len(f.sheet[sheet]) {
		return 0, &store.Error{Kind: store.BadRange, Message: "row index out of range"}
	}
	f.sheet[sheet][rowIndex1Based-1] = row
	return 1, nil
}

// failingStore always fails GetValues with the given kind.
type failingStore struct {
	kind store.ErrorKind
}

func (f failingStore) GetValues(ctx context.Context, sheet, rng string) ([][]string, error) {
	return nil, &store.Error{Kind: f.kind, Message: "forced failure"}
}
func (f failingStore) Append(ctx context.Context, sheet, rng string, row []string) (int, error) {
	return 0, &store.Error{Kind: f.kind, Message: "forced failure"}
}
func (f failingStore) Update(ctx context.Context, sheet string, rowIndex1Based int, row []string) (int, error) {
	return 0, &store.Error{Kind: f.kind, Message: "forced failure"}
}
