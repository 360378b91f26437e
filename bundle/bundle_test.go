package bundle_test

import (
	"testing"
	"time"

	"github.com/zeventbooks/eventgateway/bundle"
	"github.com/zeventbooks/eventgateway/eventmodel"
)

func TestETagDeterministic(t *testing.T) {
	ev := &eventmodel.Event{ID: "evt-1", BrandID: "abc", Name: "Trivia Night"}
	p1 := bundle.ComposePublic(ev, "abc")
	p2 := bundle.ComposePublic(ev, "abc")

	tag1, err := bundle.ETag(p1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tag2, _ := bundle.ETag(p2)
	if tag1 != tag2 {
		t.Fatalf("expected identical etags for identical input, got %s != %s", tag1, tag2)
	}

	ev2 := &eventmodel.Event{ID: "evt-1", BrandID: "abc", Name: "Different Name"}
	p3 := bundle.ComposePublic(ev2, "abc")
	tag3, _ := bundle.ETag(p3)
	if tag3 == tag1 {
		t.Fatalf("expected different etags for different input")
	}
}

func TestPublicSponsorFilter(t *testing.T) {
	ev := &eventmodel.Event{
		Sponsors: []eventmodel.Sponsor{
			{ID: "s1", Placements: eventmodel.SponsorPlacements{MobileBanner: true}},
			{ID: "s2", Placement: "poster"},
			{ID: "s3"},
		},
	}
	got := bundle.ComposePublic(ev, "root")
	if len(got.Event.Sponsors) != 1 || got.Event.Sponsors[0].ID != "s1" {
		t.Fatalf("expected only s1 to survive the public filter, got %+v", got.Event.Sponsors)
	}
}

func TestSponsorFilterIdempotent(t *testing.T) {
	ev := &eventmodel.Event{
		Sponsors: []eventmodel.Sponsor{
			{ID: "s1", Placement: "public"},
			{ID: "s2", Placement: "display"},
		},
	}
	first := bundle.ComposePublic(ev, "root")
	evAgain := &eventmodel.Event{Sponsors: first.Event.Sponsors}
	second := bundle.ComposePublic(evAgain, "root")
	if len(first.Event.Sponsors) != len(second.Event.Sponsors) {
		t.Fatalf("expected idempotent filter, got %v then %v", first.Event.Sponsors, second.Event.Sponsors)
	}
}

func TestPosterQRInvariant(t *testing.T) {
	ev := &eventmodel.Event{
		QR:    eventmodel.QR{Public: "notadataurl"},
		Links: eventmodel.Links{PublicURL: "https://x"},
	}
	got := bundle.ComposePoster(ev, "root")
	if got.Event.QR != nil || got.QRValid {
		t.Fatalf("expected qr=nil and qrValid=false for a non-data-url QR, got %+v valid=%v", got.Event.QR, got.QRValid)
	}
}

func TestPosterQRValidWhenWellFormed(t *testing.T) {
	ev := &eventmodel.Event{
		QR:    eventmodel.QR{Public: "data:image/png;base64,abc"},
		Links: eventmodel.Links{PublicURL: "https://x"},
	}
	got := bundle.ComposePoster(ev, "root")
	if got.Event.QR == nil || !got.QRValid {
		t.Fatalf("expected a valid qr to pass through")
	}
}

func TestLifecyclePhaseTotalOnUnparseable(t *testing.T) {
	got := bundle.ComputeLifecyclePhase("not-a-date")
	if got.Phase != bundle.PreEvent || got.IsLive {
		t.Fatalf("expected pre-event/not-live for unparseable date, got %+v", got)
	}
}

func TestLifecyclePhaseIsLiveMatchesPhase(t *testing.T) {
	today := time.Now().UTC()
	for _, d := range []string{
		today.AddDate(0, 0, -1).Format("2006-01-02"),
		today.Format("2006-01-02"),
		today.AddDate(0, 0, 1).Format("2006-01-02"),
		"not-a-date",
	} {
		got := bundle.ComputeLifecyclePhase(d)
		if got.IsLive != (got.Phase == bundle.EventDay) {
			t.Fatalf("isLive invariant broken for %s: %+v", d, got)
		}
	}
}
