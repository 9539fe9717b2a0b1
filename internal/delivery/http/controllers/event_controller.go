package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"remoteevents/internal/delivery/http/helpers"
	"remoteevents/internal/domain"
)

type EventController struct {
	Logger   *slog.Logger
	Events   domain.EventService
	Sessions domain.SessionService
}

func NewEventController(logger *slog.Logger, events domain.EventService, sessions domain.SessionService) *EventController {
	return &EventController{
		Logger:   logger,
		Events:   events,
		Sessions: sessions,
	}
}

// ListEventsSuccessResponse is the success response envelope for GET /events.
type ListEventsSuccessResponse struct {
	Data  []*domain.EventInfo `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ListEvents godoc
// @Summary List open events
// @Description Lists active events with per-caller capability flags. When remote_contact_id identifies a known contact, the flags reflect that contact's registrations.
// @Tags events
// @Produce json
// @Param remote_contact_id query string false "Remote contact ID of the caller"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	remoteContactID := r.URL.Query().Get("remote_contact_id")
	infos, err := c.Events.ListRemoteEvents(r.Context(), remoteContactID)
	if err != nil {
		c.Logger.Error("list events failed", "error", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not list events")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, infos)
}

// ListEventSessionsSuccessResponse is the success response envelope for GET /events/{eventID}/sessions.
type ListEventSessionsSuccessResponse struct {
	Data  []*domain.SessionWithCounts `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// ListEventSessions godoc
// @Summary List sessions of an event
// @Description Lists the active sessions of an event with their registration counts and full flags.
// @Tags sessions
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.ListEventSessionsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/sessions [get]
func (c *EventController) ListEventSessions(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	sessions, err := c.Sessions.ListEventSessions(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.Error("list event sessions failed", "event_id", eventID, "error", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not list sessions")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessions)
}
