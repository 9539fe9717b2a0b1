package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"remoteevents/internal/delivery/http/helpers"
	"remoteevents/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmissionRequest is the request body for validate, submit, update and
// cancel. Either event_id or token must identify the event.
type SubmissionRequest struct {
	EventID         string            `json:"event_id,omitempty"`
	Token           string            `json:"token,omitempty"`
	Profile         string            `json:"profile,omitempty"`
	RemoteContactID string            `json:"remote_contact_id,omitempty"`
	ContactID       string            `json:"contact_id,omitempty"`
	Locale          string            `json:"locale,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// Validate implements Validator.
func (s SubmissionRequest) Validate() []string {
	var errs []string
	if s.EventID == "" && s.Token == "" {
		errs = append(errs, "event_id or token is required")
	}
	return errs
}

func (s SubmissionRequest) submission() domain.Submission {
	return domain.Submission{
		EventID:         s.EventID,
		Token:           s.Token,
		Profile:         s.Profile,
		RemoteContactID: s.RemoteContactID,
		ContactID:       s.ContactID,
		Locale:          s.Locale,
		Fields:          s.Fields,
	}
}

// FormSuccessResponse is the success response envelope for GET /registration/form.
type FormSuccessResponse struct {
	Data  *domain.FormResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// GetForm godoc
// @Summary Get a registration form
// @Description Returns the rendered field specs for a create, update or cancel form. Update and cancel forms require a token or a known contact.
// @Tags registration
// @Produce json
// @Param event_id query string false "Event ID"
// @Param token query string false "Invite, update or cancel token"
// @Param action query string false "create, update or cancel (default create)"
// @Param profile query string false "Registration profile name"
// @Param remote_contact_id query string false "Remote contact ID of the caller"
// @Param locale query string false "Locale for labels"
// @Success 200 {object} controllers.FormSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_token"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration/form [get]
func (c *RegistrationController) GetForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domain.FormRequest{
		EventID:         q.Get("event_id"),
		Token:           q.Get("token"),
		Action:          q.Get("action"),
		Profile:         q.Get("profile"),
		RemoteContactID: q.Get("remote_contact_id"),
		Locale:          q.Get("locale"),
	}
	if req.EventID == "" && req.Token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "event_id or token is required")
		return
	}
	form, err := c.Service.GetForm(r.Context(), req)
	if err != nil {
		c.writeServiceError(w, "get form", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, form)
}

// ResultSuccessResponse is the success response envelope for the submission endpoints.
type ResultSuccessResponse struct {
	Data  *domain.RegistrationResult `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// Validate godoc
// @Summary Validate a registration submission
// @Description Runs the same validation as submit without writing anything. Field errors are returned in the result, not as HTTP errors.
// @Tags registration
// @Accept json
// @Produce json
// @Param submission body SubmissionRequest true "Submission"
// @Success 200 {object} controllers.ResultSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration/validate [post]
func (c *RegistrationController) Validate(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, "validate", http.StatusOK, c.Service.Validate)
}

// Submit godoc
// @Summary Submit a registration
// @Description Creates a registration for the submitted contact and any additional participants. Field errors are returned in the result, not as HTTP errors.
// @Tags registration
// @Accept json
// @Produce json
// @Param submission body SubmissionRequest true "Submission"
// @Success 201 {object} controllers.ResultSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_token"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration/submit [post]
func (c *RegistrationController) Submit(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, "submit", http.StatusCreated, c.Service.Submit)
}

// Update godoc
// @Summary Update an existing registration
// @Description Applies changed contact and participant fields of an existing registration, identified by an update token or a known contact.
// @Tags registration
// @Accept json
// @Produce json
// @Param submission body SubmissionRequest true "Submission"
// @Success 200 {object} controllers.ResultSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_token"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration/update [post]
func (c *RegistrationController) Update(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, "update", http.StatusOK, c.Service.Update)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Cancels the caller's registration and any linked registrations they created, identified by a cancel token or a known contact.
// @Tags registration
// @Accept json
// @Produce json
// @Param submission body SubmissionRequest true "Submission"
// @Success 200 {object} controllers.ResultSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_token"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration/cancel [post]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, "cancel", http.StatusOK, c.Service.Cancel)
}

func (c *RegistrationController) run(w http.ResponseWriter, r *http.Request, op string, successCode int, fn func(context.Context, domain.Submission) (*domain.RegistrationResult, error)) {
	var req SubmissionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := fn(r.Context(), req.submission())
	if err != nil {
		c.writeServiceError(w, op, err)
		return
	}
	if result.IsError {
		successCode = http.StatusOK
	}
	helpers.WriteJSONSuccess(w, successCode, result)
}

func (c *RegistrationController) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeInvalidToken, "invalid or expired token")
	case errors.Is(err, domain.ErrEventRequired), errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNoContact):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	default:
		c.Logger.Error("registration request failed", "op", op, "error", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
