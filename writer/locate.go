package writer

import (
	"context"
	"strings"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/eventmodel"
	"github.com/zeventbooks/eventgateway/store"
)

// Store is the narrow slice of the store adapter the writers (and the
// bundle handlers' lookups) need, letting package tests substitute a
// fake instead of an httptest server.
type Store interface {
	GetValues(ctx context.Context, sheet, rng string) ([][]string, error)
	Append(ctx context.Context, sheet, rng string, row []string) (int, error)
	Update(ctx context.Context, sheet string, rowIndex1Based int, row []string) (int, error)
}

const eventsRange = "A:G"

// Located pairs a parsed event with its 1-based row index in EVENTS,
// exported so the handler layer can reuse the same scan for its
// id-then-slug bundle lookup (§4.8).
type Located struct {
	Event    *eventmodel.Event
	RowIndex int
}

// ScanEvents reads EVENTS!A:G, skips the header row, and parses every
// well-formed data row. Malformed rows are skipped rather than failing
// the whole scan, matching the codec's per-row tolerance.
func ScanEvents(ctx context.Context, s Store) ([]Located, error) {
	rows, err := s.GetValues(ctx, "EVENTS", eventsRange)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	out := make([]Located, 0, len(rows)-1)
	for i, row := range rows[1:] {
		ev, perr := eventmodel.ParseEventRow(row)
		if perr != nil {
			continue
		}
		out = append(out, Located{Event: ev, RowIndex: i + 2})
	}
	return out, nil
}

// FindByID returns the event with the given id, across all brands.
func FindByID(ctx context.Context, s Store, id string) (*Located, error) {
	all, err := ScanEvents(ctx, s)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Event.ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// FindBySlug returns the event with the given slug within a brand,
// used by the bundle handlers' backward-compatible lookup-by-old-URL.
func FindBySlug(ctx context.Context, s Store, brandID, slug string) (*Located, error) {
	all, err := ScanEvents(ctx, s)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Event.BrandID == brandID && all[i].Event.Slug == slug {
			return &all[i], nil
		}
	}
	return nil, nil
}

// idempotencyKey is (brandId, lower(trim(name)), startDateISO, lower(trim(venue))).
func idempotencyKey(brandID, name, startDateISO, venue string) string {
	return brandID + "|" + strings.ToLower(strings.TrimSpace(name)) + "|" + startDateISO + "|" + strings.ToLower(strings.TrimSpace(venue))
}

// forBrand finds the existing event matching the idempotency key, and
// returns the full set of slugs already taken within the brand (for
// collision resolution).
func forBrand(ctx context.Context, s Store, brandID, name, startDateISO, venue string) (dup *eventmodel.Event, takenSlugs map[string]bool, err error) {
	all, err := ScanEvents(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	key := idempotencyKey(brandID, name, startDateISO, venue)
	takenSlugs = make(map[string]bool)
	for _, l := range all {
		if l.Event.BrandID != brandID {
			continue
		}
		takenSlugs[l.Event.Slug] = true
		if idempotencyKey(l.Event.BrandID, l.Event.Name, l.Event.StartDateISO, l.Event.Venue) == key {
			dup = l.Event
		}
	}
	return dup, takenSlugs, nil
}

// storeErrToAPI maps a store adapter error to the handler-facing
// apierr.Error via the §7 total mapping, falling back to a generic
// internal error for anything that isn't a *store.Error.
func storeErrToAPI(err error) *apierr.Error {
	if serr, ok := err.(*store.Error); ok {
		return apierr.FromStoreError(serr, apierr.EventNotFound)
	}
	return apierr.NewInternal("evt", err.Error())
}
