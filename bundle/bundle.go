// Package bundle is the bundle composition layer (C4): pure,
// per-surface projections of an event, plus lifecycle derivation and
// content-addressed ETag generation. All composers are pure functions
// of their inputs — any I/O (like counting shortlinks for the admin
// diagnostics block) is gathered by the handler and passed in.
package bundle

import (
	"strings"
	"time"

	"github.com/zeventbooks/eventgateway/brand"
	"github.com/zeventbooks/eventgateway/eventmodel"
)

// Public is the value returned to the public-facing surface.
type Public struct {
	Event          eventmodel.Event     `json:"event"`
	Brand          brand.Public         `json:"brand"`
	LifecyclePhase LifecyclePhase       `json:"lifecyclePhase"`
}

// ComposePublic filters sponsors to the public placement set and
// attaches the public brand config and lifecycle phase (§4.4).
func ComposePublic(ev *eventmodel.Event, brandID string) Public {
	e := ev.Clone()
	e.Sponsors = filterSponsors(ev.Sponsors, publicSponsorFilter)
	return Public{
		Event:          e,
		Brand:          brand.Get(brandID).Public(),
		LifecyclePhase: ComputeLifecyclePhase(ev.StartDateISO),
	}
}

// DisplayEvent is the narrow TV-facing projection.
type DisplayEvent struct {
	ID           string                    `json:"id"`
	Slug         string                    `json:"slug"`
	Name         string                    `json:"name"`
	StartDateISO string                    `json:"startDateISO"`
	Venue        string                    `json:"venue"`
	Links        eventmodel.Links          `json:"links"`
	Schedule     []eventmodel.ScheduleItem `json:"schedule"`
	Standings    []eventmodel.Standing     `json:"standings"`
	Bracket      eventmodel.Bracket        `json:"bracket"`
	Sponsors     []eventmodel.Sponsor      `json:"sponsors"`
	Settings     eventmodel.Settings       `json:"settings"`
	CreatedAtISO string                    `json:"createdAtISO"`
	UpdatedAtISO string                    `json:"updatedAtISO"`
}

// Display is the value returned to the TV/kiosk surface.
type Display struct {
	Event          DisplayEvent   `json:"event"`
	Brand          brand.Public   `json:"brand"`
	LifecyclePhase LifecyclePhase `json:"lifecyclePhase"`
}

func toDisplayEvent(ev *eventmodel.Event, sponsors []eventmodel.Sponsor) DisplayEvent {
	return DisplayEvent{
		ID: ev.ID, Slug: ev.Slug, Name: ev.Name, StartDateISO: ev.StartDateISO,
		Venue: ev.Venue, Links: ev.Links, Schedule: ev.Schedule, Standings: ev.Standings,
		Bracket: ev.Bracket, Sponsors: sponsors, Settings: ev.Settings,
		CreatedAtISO: ev.CreatedAtISO, UpdatedAtISO: ev.UpdatedAtISO,
	}
}

// ComposeDisplay projects the narrow TV shape with the display
// sponsor filter.
func ComposeDisplay(ev *eventmodel.Event, brandID string) Display {
	sponsors := filterSponsors(ev.Sponsors, displaySponsorFilter)
	return Display{
		Event:          toDisplayEvent(ev, sponsors),
		Brand:          brand.Get(brandID).Public(),
		LifecyclePhase: ComputeLifecyclePhase(ev.StartDateISO),
	}
}

// PosterEvent is the display shape plus CTAs and QR.
type PosterEvent struct {
	DisplayEvent
	CTAs eventmodel.CTAs `json:"ctas"`
	QR   *string         `json:"qr"`
}

// Poster is the value returned to the poster/flyer surface.
type Poster struct {
	Event          PosterEvent    `json:"event"`
	Brand          brand.Public   `json:"brand"`
	LifecyclePhase LifecyclePhase `json:"lifecyclePhase"`
	QRValid        bool           `json:"qrValid"`
}

// ComposePoster projects the poster shape. A QR is only surfaced if
// qr.public is present, begins with "data:image", and links.publicUrl
// exists — otherwise qr is null and qrValid is false, the "never show
// an unverified QR" invariant (§4.4).
func ComposePoster(ev *eventmodel.Event, brandID string) Poster {
	sponsors := filterSponsors(ev.Sponsors, posterSponsorFilter)
	display := toDisplayEvent(ev, sponsors)

	var qr *string
	valid := ev.QR.Public != "" && strings.HasPrefix(ev.QR.Public, "data:image") && ev.Links.PublicURL != ""
	if valid {
		v := ev.QR.Public
		qr = &v
	}

	return Poster{
		Event: PosterEvent{
			DisplayEvent: display,
			CTAs:         ev.CTAs,
			QR:           qr,
		},
		Brand:          brand.Get(brandID).Public(),
		LifecyclePhase: ComputeLifecyclePhase(ev.StartDateISO),
		QRValid:        valid,
	}
}

// Diagnostics is the I/O-derived piece of the admin bundle, gathered
// by the handler and passed into ComposeAdmin so the composer itself
// stays a pure function (§9).
type Diagnostics struct {
	FormStatus      string    `json:"formStatus"`
	ShortlinksCount int       `json:"shortlinksCount"`
	LastSyncedAt    time.Time `json:"lastSyncedAt"`
	Warnings        []string  `json:"warnings"`
}

// ComputeWarnings derives the diagnostics warning list from the event
// itself: missing signup URL and missing/invalid QR.
func ComputeWarnings(ev *eventmodel.Event) []string {
	var warnings []string
	if ev.Links.SignupURL == "" {
		warnings = append(warnings, "missing signup URL")
	}
	if ev.QR.Public == "" || !strings.HasPrefix(ev.QR.Public, "data:image") {
		warnings = append(warnings, "missing QR")
	}
	return warnings
}

// Admin is the value returned to the admin surface: the full event,
// unfiltered.
type Admin struct {
	Event          eventmodel.Event       `json:"event"`
	Brand          brand.Admin            `json:"brand"`
	Templates      []string               `json:"templates"`
	Diagnostics    Diagnostics            `json:"diagnostics"`
	AllSponsors    []eventmodel.Sponsor   `json:"allSponsors"`
	LifecyclePhase LifecyclePhase         `json:"lifecyclePhase"`
}

// ComposeAdmin projects the full, unfiltered admin view.
func ComposeAdmin(ev *eventmodel.Event, brandID string, diag Diagnostics) Admin {
	b := brand.Get(brandID)
	return Admin{
		Event:          ev.Clone(),
		Brand:          b.Admin(),
		Templates:      b.AllowedTemplates,
		Diagnostics:    diag,
		AllSponsors:    append([]eventmodel.Sponsor(nil), ev.Sponsors...),
		LifecyclePhase: ComputeLifecyclePhase(ev.StartDateISO),
	}
}
