package handler_test

import (
	"context"
	"sync"
)

// fakeStore is a minimal in-memory writer.Store for handler package
// tests, mirroring the writer package's own fake.
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
	f.sheet[sheet][rowIndex1Based-1] = row
	return 1, nil
}
