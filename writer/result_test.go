package writer_test

import (
	"context"
	"testing"
	"time"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/eventmodel"
	"github.com/zeventbooks/eventgateway/writer"
)

func TestRecordResultRequiresAField(t *testing.T) {
	s := newFakeStore()
	m := writer.NewMerger(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())
	_, err := m.RecordResult(context.Background(), "evt-1", writer.ResultInput{})
	if err == nil || err.Code != apierr.BadInput {
		t.Fatalf("expected BAD_INPUT for an empty result, got %v", err)
	}
}

func TestRecordResultNotFound(t *testing.T) {
	s := newFakeStore()
	m := writer.NewMerger(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())
	_, err := m.RecordResult(context.Background(), "evt-missing", writer.ResultInput{
		Standings: []eventmodel.Standing{{Rank: 1, Name: "Alpha", Score: 42}},
	})
	if err == nil || err.Code != apierr.EventNotFound {
		t.Fatalf("expected EVENT_NOT_FOUND, got %v", err)
	}
}

func TestRecordResultRoundTrip(t *testing.T) {
	s := newFakeStore()
	creator := writer.NewCreator(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())
	ev, _, cerr := creator.Create(context.Background(), writer.CreateInput{
		Name: "Trivia Night", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc",
	})
	if cerr != nil {
		t.Fatalf("setup: create failed: %v", cerr)
	}

	m := writer.NewMerger(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())
	standings := []eventmodel.Standing{{Rank: 1, Name: "Alpha", Score: 42}}
	updated, rerr := m.RecordResult(context.Background(), ev.ID, writer.ResultInput{Standings: standings})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if len(updated.Standings) != 1 || !updated.Settings.ShowStandings {
		t.Fatalf("expected standings set and showStandings=true, got %+v", updated)
	}
	if len(updated.Schedule) != 0 || updated.Settings.ShowSchedule {
		t.Fatalf("expected schedule untouched, got %+v", updated)
	}

	loc, ferr := writer.FindByID(context.Background(), s, ev.ID)
	if ferr != nil || loc == nil {
		t.Fatalf("expected to find the updated event by id, err=%v loc=%v", ferr, loc)
	}
	if len(loc.Event.Standings) != 1 {
		t.Fatalf("expected the store to reflect the merged standings")
	}
}

func TestRecordResultLockContentionReturnsBusy(t *testing.T) {
	s := newFakeStore()
	locks := writer.NewKeyedMutex()
	creator := writer.NewCreator(s, locks, 2*time.Second, testLogger())
	ev, _, cerr := creator.Create(context.Background(), writer.CreateInput{
		Name: "Trivia Night", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc",
	})
	if cerr != nil {
		t.Fatalf("setup: create failed: %v", cerr)
	}

	unlock, lerr := locks.Lock(context.Background(), ev.ID, time.Second)
	if lerr != nil {
		t.Fatalf("setup: failed to acquire lock: %v", lerr)
	}
	defer unlock()

	m := writer.NewMerger(s, locks, 50*time.Millisecond, testLogger())
	_, err := m.RecordResult(context.Background(), ev.ID, writer.ResultInput{
		Standings: []eventmodel.Standing{{Rank: 1, Name: "Alpha", Score: 1}},
	})
	if err == nil || err.Code != apierr.Busy {
		t.Fatalf("expected BUSY on lock contention, got %v", err)
	}
}
