package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zeventbooks/eventgateway/apierr"
	"github.com/zeventbooks/eventgateway/eventmodel"
	"github.com/zeventbooks/eventgateway/writer"
)

// WriterHandlers serves the two mutating admin endpoints.
type WriterHandlers struct {
	creator *writer.Creator
	merger  *writer.Merger
}

// NewWriterHandlers builds the writer handler set.
func NewWriterHandlers(creator *writer.Creator, merger *writer.Merger) *WriterHandlers {
	return &WriterHandlers{creator: creator, merger: merger}
}

type createEventBody struct {
	Name         string `json:"name"`
	StartDateISO string `json:"startDateISO"`
	Venue        string `json:"venue"`
	BrandID      string `json:"brandId"`
	TemplateID   string `json:"templateId"`
	SignupURL    string `json:"signupUrl"`
}

// CreateEvent serves POST /api/admin/events.
func (h *WriterHandlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var body createEventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apierr.New(apierr.BadInput, 400, "malformed JSON body"))
		return
	}

	ev, duplicate, err := h.creator.Create(r.Context(), writer.CreateInput{
		Name:         body.Name,
		StartDateISO: body.StartDateISO,
		Venue:        body.Venue,
		BrandID:      body.BrandID,
		TemplateID:   body.TemplateID,
		SignupURL:    body.SignupURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if duplicate {
		writeValue(w, http.StatusOK, ev, "", true)
		return
	}
	w.Header().Set("Location", "/api/events/"+ev.ID)
	writeValue(w, http.StatusCreated, ev, "", false)
}

type recordResultBody struct {
	Schedule  []eventmodel.ScheduleItem `json:"schedule"`
	Standings []eventmodel.Standing     `json:"standings"`
	Bracket   *eventmodel.Bracket       `json:"bracket"`
}

// RecordResult serves POST /api/admin/events/{id}/results.
func (h *WriterHandlers) RecordResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body recordResultBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apierr.New(apierr.BadInput, 400, "malformed JSON body"))
		return
	}

	in := writer.ResultInput{Bracket: body.Bracket}
	if body.Schedule != nil {
		in.Schedule = body.Schedule
	}
	if body.Standings != nil {
		in.Standings = body.Standings
	}

	ev, err := h.merger.RecordResult(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeValue(w, http.StatusOK, ev, "", false)
}
