package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"remoteevents/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
	sessionController *controllers.SessionController,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("GET /api/v1/events", eventController.ListEvents)
	mux.HandleFunc("GET /api/v1/events/{eventID}/sessions", eventController.ListEventSessions)

	// Registration
	mux.HandleFunc("GET /api/v1/registration/form", registrationController.GetForm)
	mux.HandleFunc("POST /api/v1/registration/validate", registrationController.Validate)
	mux.HandleFunc("POST /api/v1/registration/submit", registrationController.Submit)
	mux.HandleFunc("POST /api/v1/registration/update", registrationController.Update)
	mux.HandleFunc("POST /api/v1/registration/cancel", registrationController.Cancel)

	// Sessions
	mux.HandleFunc("PUT /api/v1/participants/sessions", sessionController.SetSessions)

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
