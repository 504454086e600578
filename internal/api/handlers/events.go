package handlers

import (
	"net/http"
	"strconv"

	"github.com/eventnest/server/internal/audit"
	"github.com/eventnest/server/internal/domain/events"
)

type EventsHandler struct {
	Service *events.Service
	Audit   *audit.Logger
	Env     string
}

func NewEventsHandler(service *events.Service, auditLogger *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Audit: auditLogger, Env: env}
}

type eventCreateRequest struct {
	Title           *string `form:"title" json:"title" validate:"required"`
	Description     *string `form:"description" json:"description" validate:"required"`
	Location        *string `form:"location" json:"location" validate:"required"`
	MaxParticipants *int    `form:"max_participants" json:"max_participants" validate:"required"`
	OrganizerID     *int64  `form:"organizer_id" json:"organizer_id" validate:"required"`
}

// The organizer is fixed at creation and cannot be changed.
type eventUpdateRequest struct {
	Title           *string `form:"title" json:"title"`
	Description     *string `form:"description" json:"description"`
	Location        *string `form:"location" json:"location"`
	MaxParticipants *int    `form:"max_participants" json:"max_participants"`
}

type eventResponse struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	MaxParticipants int    `json:"max_participants"`
	OrganizerID     int64  `json:"organizer_id"`
}

type eventEnvelope struct {
	Message string        `json:"message"`
	Event   eventResponse `json:"event"`
}

func newEventResponse(e *events.Event) eventResponse {
	return eventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		MaxParticipants: e.MaxParticipants,
		OrganizerID:     e.OrganizerID,
	}
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventCreateRequest
	if err := bindParams(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), events.CreateParams{
		Title:           *req.Title,
		Description:     *req.Description,
		Location:        *req.Location,
		MaxParticipants: *req.MaxParticipants,
		OrganizerID:     *req.OrganizerID,
	})
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "event.create", "event", strconv.FormatInt(event.ID, 10),
		map[string]string{"organizer_id": strconv.FormatInt(event.OrganizerID, 10)})
	writeJSON(w, http.StatusOK, eventEnvelope{Message: "Event created successfully", Event: newEventResponse(event)})
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(result))
	for i := range result {
		items = append(items, newEventResponse(&result[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	var req eventUpdateRequest
	if err := bindParams(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), id, events.UpdateParams{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	fields := suppliedFields(map[string]*string{"title": req.Title, "description": req.Description, "location": req.Location})
	if req.MaxParticipants != nil && *req.MaxParticipants != 0 {
		fields = appendField(fields, "max_participants")
	}
	h.Audit.LogFromRequest(r, "event.update", "event", strconv.FormatInt(event.ID, 10), fields)
	writeJSON(w, http.StatusOK, eventEnvelope{Message: "Event updated successfully", Event: newEventResponse(event)})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "event.delete", "event", strconv.FormatInt(id, 10), nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Event deleted successfully"})
}
