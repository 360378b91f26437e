package writer

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/brand"
	"github.com/zeventbooks/eventgateway/eventmodel"
)

var startDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CreateInput is the validated shape of an event-creation request.
type CreateInput struct {
	Name         string
	StartDateISO string
	Venue        string
	BrandID      string
	TemplateID   string
	SignupURL    string
}

// Creator is the event creator (C5).
type Creator struct {
	store    Store
	locks    *KeyedMutex
	lockWait time.Duration
	logger   zerolog.Logger
}

// NewCreator builds an event creator sharing locks with the result
// merger so a create and a concurrent record-result against the same
// slug/id never race on the same eventId (they key on different
// namespaces, but share one KeyedMutex instance for simplicity).
func NewCreator(s Store, locks *KeyedMutex, lockWait time.Duration, logger zerolog.Logger) *Creator {
	return &Creator{store: s, locks: locks, lockWait: lockWait, logger: logger.With().Str("component", "creator").Logger()}
}

// Validate checks the fields required to create an event, independent
// of locking or store access, so handlers can fail fast.
func Validate(in CreateInput) *apierr.Error {
	if strings.TrimSpace(in.Name) == "" {
		return apierr.New(apierr.BadInput, 400, "name is required")
	}
	if !startDatePattern.MatchString(in.StartDateISO) {
		return apierr.New(apierr.BadInput, 400, "startDateISO must match YYYY-MM-DD")
	}
	if strings.TrimSpace(in.Venue) == "" {
		return apierr.New(apierr.BadInput, 400, "venue is required")
	}
	if !brand.Valid(in.BrandID) {
		return apierr.New(apierr.BadInput, 400, "brandId is not recognized")
	}
	if !brand.Get(in.BrandID).TemplateAllowed(in.TemplateID) {
		return apierr.New(apierr.BadInput, 400, "templateId is not allowed for this brand")
	}
	return nil
}

// Create runs the full §4.5 algorithm: idempotency-key dedup, slug
// assignment with per-(brand,baseSlug) locking, id generation, and a
// single append. The returned bool is true when an existing event was
// returned instead of a new one being created.
func (c *Creator) Create(ctx context.Context, in CreateInput) (*eventmodel.Event, bool, *apierr.Error) {
	if verr := Validate(in); verr != nil {
		return nil, false, verr
	}

	baseSlug := ToSlug(in.Name)
	lockKey := in.BrandID + "|" + baseSlug

	unlock, err := c.locks.Lock(ctx, lockKey, c.lockWait)
	if err != nil {
		if err == ErrBusy {
			return nil, false, apierr.New(apierr.Busy, 503, "create is contended on this brand and name, try again")
		}
		return nil, false, apierr.New(apierr.Timeout, 408, "create was cancelled while waiting for the lock")
	}
	defer unlock()

	dup, taken, serr := forBrand(ctx, c.store, in.BrandID, in.Name, in.StartDateISO, in.Venue)
	if serr != nil {
		return nil, false, storeErrToAPI(serr)
	}
	if dup != nil {
		return dup, true, nil
	}

	now := time.Now().UTC()
	nowMs := now.UnixMilli()
	slug := ResolveSlugCollision(baseSlug, taken, nowMs)
	id := "evt-" + strconv.FormatInt(nowMs, 36) + "-" + randomBase36(6)
	eventTag := strings.ToUpper(in.BrandID) + "-" + strings.ToUpper(slug) + "-" + in.StartDateISO
	nowISO := now.Format(time.RFC3339)

	ev := &eventmodel.Event{
		ID:           id,
		BrandID:      in.BrandID,
		Slug:         slug,
		EventTag:     eventTag,
		Name:         in.Name,
		StartDateISO: in.StartDateISO,
		Venue:        in.Venue,
		TemplateID:   in.TemplateID,
		Links: eventmodel.Links{
			PublicURL:  "/api/events/" + id + "/publicBundle",
			DisplayURL: "/api/events/" + id + "/displayBundle",
			PosterURL:  "/api/events/" + id + "/posterBundle",
			SignupURL:  in.SignupURL,
		},
		CreatedAtISO: nowISO,
		UpdatedAtISO: nowISO,
	}

	row, berr := eventmodel.BuildEventRow(ev)
	if berr != nil {
		return nil, false, apierr.NewInternal("evt", "failed to encode event row")
	}
	if _, aerr := c.store.Append(ctx, "EVENTS", eventsRange, row); aerr != nil {
		return nil, false, storeErrToAPI(aerr)
	}

	return ev, false, nil
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}
	return string(b)
}
