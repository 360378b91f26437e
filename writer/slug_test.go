package writer_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/zeventbooks/eventgateway/writer"
)

func TestToSlugLaw(t *testing.T) {
	cases := []string{"Trivia Night!", "trivia---night", "  Trivia   NIGHT  ", ""}
	for _, in := range cases {
		s := writer.ToSlug(in)
		if strings.Trim(s, "abcdefghijklmnopqrstuvwxyz0123456789-") != "" {
			t.Fatalf("slug %q for input %q contains disallowed characters", s, in)
		}
		if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
			t.Fatalf("slug %q has a leading or trailing hyphen", s)
		}
		if len(s) > 50 {
			t.Fatalf("slug %q exceeds 50 chars", s)
		}
	}
}

func TestToSlugCaseAndRunsEquivalent(t *testing.T) {
	a := writer.ToSlug("Trivia Night!")
	b := writer.ToSlug("trivia---night")
	if a != b {
		t.Fatalf("expected equivalent slugs, got %q != %q", a, b)
	}
}

func TestToSlugEmptyDefaultsToEvent(t *testing.T) {
	if got := writer.ToSlug("!!!"); got != "event" {
		t.Fatalf("expected default slug 'event', got %q", got)
	}
}

func TestToSlugTruncatesAt50(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := writer.ToSlug(long)
	if len(got) > 50 {
		t.Fatalf("expected truncation to 50 chars, got length %d", len(got))
	}
}

func TestResolveSlugCollision(t *testing.T) {
	taken := map[string]bool{"trivia-night": true}
	if got := writer.ResolveSlugCollision("trivia-night", taken, 123); got != "trivia-night-2" {
		t.Fatalf("expected trivia-night-2, got %q", got)
	}
}

func TestResolveSlugCollisionFallsBackAfter100(t *testing.T) {
	taken := map[string]bool{"x": true}
	for i := 2; i <= 100; i++ {
		taken["x-"+strconv.Itoa(i)] = true
	}
	got := writer.ResolveSlugCollision("x", taken, 999)
	if got != "x-999" {
		t.Fatalf("expected fallback x-999, got %q", got)
	}
}
