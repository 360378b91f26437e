package writer_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/writer"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestCreateThenDuplicate(t *testing.T) {
	s := newFakeStore()
	c := writer.NewCreator(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())

	in := writer.CreateInput{Name: "Trivia Night", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc"}

	ev, dup, err := c.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatalf("expected a new event, got duplicate=true")
	}
	if ev.Slug != "trivia-night" {
		t.Fatalf("expected slug trivia-night, got %q", ev.Slug)
	}
	if ev.EventTag != "ABC-TRIVIA-NIGHT-2025-12-01" {
		t.Fatalf("unexpected eventTag %q", ev.EventTag)
	}
	if ev.CreatedAtISO != ev.UpdatedAtISO {
		t.Fatalf("expected createdAtISO == updatedAtISO on creation")
	}

	ev2, dup2, err2 := c.Create(context.Background(), in)
	if err2 != nil {
		t.Fatalf("unexpected error on duplicate create: %v", err2)
	}
	if !dup2 {
		t.Fatalf("expected duplicate=true on second identical create")
	}
	if ev2.ID != ev.ID {
		t.Fatalf("expected same id on duplicate, got %q != %q", ev2.ID, ev.ID)
	}
}

func TestCreateSlugCollision(t *testing.T) {
	s := newFakeStore()
	c := writer.NewCreator(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())

	_, _, err := c.Create(context.Background(), writer.CreateInput{
		Name: "Trivia Night", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev2, dup, err2 := c.Create(context.Background(), writer.CreateInput{
		Name: "Trivia Night!", StartDateISO: "2025-12-08", Venue: "Hall B", BrandID: "abc",
	})
	if err2 != nil {
		t.Fatalf("unexpected error: %v", err2)
	}
	if dup {
		t.Fatalf("expected a distinct event, not a duplicate")
	}
	if ev2.Slug != "trivia-night-2" {
		t.Fatalf("expected slug trivia-night-2 on collision, got %q", ev2.Slug)
	}
}

func TestCreateValidation(t *testing.T) {
	s := newFakeStore()
	c := writer.NewCreator(s, writer.NewKeyedMutex(), 2*time.Second, testLogger())

	cases := []writer.CreateInput{
		{Name: "", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc"},
		{Name: "X", StartDateISO: "not-a-date", Venue: "Hall A", BrandID: "abc"},
		{Name: "X", StartDateISO: "2025-12-01", Venue: "", BrandID: "abc"},
		{Name: "X", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "nope"},
		{Name: "X", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc", TemplateID: "nonexistent"},
	}
	for i, in := range cases {
		_, _, err := c.Create(context.Background(), in)
		if err == nil || err.Code != apierr.BadInput {
			t.Fatalf("case %d: expected BAD_INPUT, got %v", i, err)
		}
	}
}

func TestCreateLockContentionReturnsBusy(t *testing.T) {
	s := newFakeStore()
	locks := writer.NewKeyedMutex()
	c := writer.NewCreator(s, locks, 50*time.Millisecond, testLogger())

	unlock, lerr := locks.Lock(context.Background(), "abc|trivia-night", time.Second)
	if lerr != nil {
		t.Fatalf("setup: failed to acquire lock: %v", lerr)
	}
	defer unlock()

	_, _, err := c.Create(context.Background(), writer.CreateInput{
		Name: "Trivia Night", StartDateISO: "2025-12-01", Venue: "Hall A", BrandID: "abc",
	})
	if err == nil || err.Code != apierr.Busy {
		t.Fatalf("expected BUSY on lock contention, got %v", err)
	}
}
