package eventmodel

import (
	"encoding/json"
	"errors"
)

// ErrRowIncomplete is returned when a stored row is missing its id or
// dataJson cell. Callers should silently skip such rows (§4.3).
var ErrRowIncomplete = errors.New("eventmodel: row missing id or dataJson")

// ErrRowMalformed is returned when dataJson fails to parse. Unlike
// ErrRowIncomplete, callers that surface this to a requester should
// report INTERNAL with a correlation id rather than silently omitting
// the row (§4.3).
var ErrRowMalformed = errors.New("eventmodel: row dataJson is malformed")

// column indices for EVENTS!A:G, per §6.
const (
	colID           = 0
	colBrandID      = 1
	colTemplateID   = 2
	colDataJSON     = 3
	colCreatedAtISO = 4
	colSlug         = 5
	colUpdatedAtISO = 6
	numColumns      = 7
)

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// ParseEventRow reads columns [id, brandId, templateId, dataJson,
// createdAtISO, slug, updatedAtISO] into an Event. The first-class
// columns (id, brandId, slug, createdAtISO, updatedAtISO) take
// precedence over whatever the dataJson blob carries, since they are
// what the adapter filters on without parsing JSON.
func ParseEventRow(row []string) (*Event, error) {
	id := cell(row, colID)
	dataJSON := cell(row, colDataJSON)
	if id == "" || dataJSON == "" {
		return nil, ErrRowIncomplete
	}

	var ev Event
	if err := json.Unmarshal([]byte(dataJSON), &ev); err != nil {
		return nil, ErrRowMalformed
	}

	ev.ID = id
	ev.BrandID = cell(row, colBrandID)
	ev.TemplateID = cell(row, colTemplateID)
	ev.CreatedAtISO = cell(row, colCreatedAtISO)
	ev.Slug = cell(row, colSlug)
	ev.UpdatedAtISO = cell(row, colUpdatedAtISO)

	return &ev, nil
}

// BuildEventRow is the inverse of ParseEventRow. Round-trip invariant:
// BuildEventRow(ParseEventRow(r)) == r for any well-formed row — the
// first-class columns are written verbatim from the event, and the
// same Event is marshaled back into dataJson.
func BuildEventRow(ev *Event) ([]string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	row := make([]string, numColumns)
	row[colID] = ev.ID
	row[colBrandID] = ev.BrandID
	row[colTemplateID] = ev.TemplateID
	row[colDataJSON] = string(data)
	row[colCreatedAtISO] = ev.CreatedAtISO
	row[colSlug] = ev.Slug
	row[colUpdatedAtISO] = ev.UpdatedAtISO
	return row, nil
}
