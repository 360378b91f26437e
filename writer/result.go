package writer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/eventmodel"
)

// ResultInput is the validated shape of a record-result request. At
// least one field must be non-nil.
type ResultInput struct {
	Schedule  []eventmodel.ScheduleItem
	Standings []eventmodel.Standing
	Bracket   *eventmodel.Bracket
}

func (in ResultInput) empty() bool {
	return in.Schedule == nil && in.Standings == nil && in.Bracket == nil
}

// Merger is the result merger (C5): load-merge-save under a
// per-eventId lock.
type Merger struct {
	store    Store
	locks    *KeyedMutex
	lockWait time.Duration
	logger   zerolog.Logger
}

// NewMerger builds a result merger. locks is shared with the Creator's
// KeyedMutex instance; the two use disjoint key namespaces
// (brandId|baseSlug vs eventId) so there is no risk of a false
// collision between them.
func NewMerger(s Store, locks *KeyedMutex, lockWait time.Duration, logger zerolog.Logger) *Merger {
	return &Merger{store: s, locks: locks, lockWait: lockWait, logger: logger.With().Str("component", "merger").Logger()}
}

// RecordResult loads the event, replaces whichever of
// schedule/standings/bracket were provided in full, flips the matching
// settings.show* flag, and writes the row back at the observed row
// index, all under a lock on eventID.
func (m *Merger) RecordResult(ctx context.Context, eventID string, in ResultInput) (*eventmodel.Event, *apierr.Error) {
	if in.empty() {
		return nil, apierr.New(apierr.BadInput, 400, "at least one of schedule, standings, or bracket is required")
	}

	unlock, err := m.locks.Lock(ctx, eventID, m.lockWait)
	if err != nil {
		if err == ErrBusy {
			return nil, apierr.New(apierr.Busy, 503, "this event is contended by another write, try again")
		}
		return nil, apierr.New(apierr.Timeout, 408, "record-result was cancelled while waiting for the lock")
	}
	defer unlock()

	loc, serr := FindByID(ctx, m.store, eventID)
	if serr != nil {
		return nil, storeErrToAPI(serr)
	}
	if loc == nil {
		return nil, apierr.New(apierr.EventNotFound, 404, "event "+eventID+" was not found")
	}

	ev := loc.Event
	if in.Schedule != nil {
		ev.Schedule = in.Schedule
		if len(in.Schedule) > 0 {
			ev.Settings.ShowSchedule = true
		}
	}
	if in.Standings != nil {
		ev.Standings = in.Standings
		if len(in.Standings) > 0 {
			ev.Settings.ShowStandings = true
		}
	}
	if in.Bracket != nil {
		ev.Bracket = *in.Bracket
		if len(in.Bracket.Matches) > 0 {
			ev.Settings.ShowBracket = true
		}
	}
	ev.UpdatedAtISO = time.Now().UTC().Format(time.RFC3339)

	row, berr := eventmodel.BuildEventRow(ev)
	if berr != nil {
		return nil, apierr.NewInternal("evt", "failed to encode event row")
	}
	if _, uerr := m.store.Update(ctx, "EVENTS", loc.RowIndex, row); uerr != nil {
		return nil, storeErrToAPI(uerr)
	}

	return ev, nil
}
