package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"remoteevents/internal/delivery/http/helpers"
	"remoteevents/internal/domain"
)

type SessionController struct {
	Logger   *slog.Logger
	Sessions domain.SessionService
	Tokens   domain.TokenCodec
}

func NewSessionController(logger *slog.Logger, sessions domain.SessionService, tokens domain.TokenCodec) *SessionController {
	return &SessionController{
		Logger:   logger,
		Sessions: sessions,
		Tokens:   tokens,
	}
}

// SetSessionsRequest is the request body for PUT /participants/sessions.
// The update token identifies the participant.
type SetSessionsRequest struct {
	Token      string   `json:"token"`
	SessionIDs []string `json:"session_ids"`
}

// Validate implements Validator.
func (s SetSessionsRequest) Validate() []string {
	var errs []string
	if s.Token == "" {
		errs = append(errs, "token is required")
	}
	return errs
}

// SetSessionsSuccessResponse is the success response envelope for PUT /participants/sessions.
type SetSessionsSuccessResponse struct {
	Data  map[string]any    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SetSessions godoc
// @Summary Rebook a participant's sessions
// @Description Replaces the participant's session registrations with the given set, enforcing per-session capacity and one session per time slot. The participant is identified by their update token.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body SetSessionsRequest true "Token and target session set"
// @Success 200 {object} controllers.SetSessionsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_token"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /participants/sessions [put]
func (c *SessionController) SetSessions(w http.ResponseWriter, r *http.Request) {
	var req SetSessionsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	participantID, err := c.Tokens.Decode(domain.TokenEntityParticipant, req.Token, domain.TokenUsageUpdate)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeInvalidToken, "invalid or expired token")
		return
	}
	if err := c.Sessions.SetParticipantSessions(r.Context(), participantID, req.SessionIDs); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "participant not found")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.Error("set sessions failed", "participant_id", participantID, "error", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]any{"participant_id": participantID})
}
