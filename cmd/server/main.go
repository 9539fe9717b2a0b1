package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"remoteevents/config"
	_ "remoteevents/docs"
	"remoteevents/internal/adapters/email"
	"remoteevents/internal/adapters/token"
	"remoteevents/internal/adapters/xcm"
	"remoteevents/internal/delivery/http/controllers"
	"remoteevents/internal/delivery/http/middleware"
	"remoteevents/internal/domain"
	"remoteevents/internal/repository/postgres"
	"remoteevents/internal/services"

	delivery "remoteevents/internal/delivery/http"
)

// @title Remote Events API
// @version 1.0
// @description Remote event registration API: event listing, registration forms, submissions and session bookings.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Repositories
	events := postgres.NewEventRepository(db)
	contacts := postgres.NewContactRepository(db)
	participants := postgres.NewParticipantRepository(db)
	orders := postgres.NewOrderRepository(db)
	prices := postgres.NewPriceFieldRepository(db)
	sessions := postgres.NewSessionRepository(db)
	statuses := postgres.NewStatusRepository(db)
	changes := postgres.NewParticipantChangeRepository(db)

	statusIndex, err := loadStatusIndex(ctx, statuses, logger)
	if err != nil {
		logger.Error("load status metadata", "error", err)
		os.Exit(1)
	}

	// Adapters
	tokens := token.NewJWTCodec(cfg.TokenSecret)
	var matcher domain.ContactMatcher
	if cfg.XCMBaseURL != "" {
		matcher = xcm.NewHTTPMatcher(nil, cfg.XCMBaseURL, cfg.XCMAPIKey)
	} else {
		logger.Warn("XCM_BASE_URL not set, using in-memory contact matcher")
		matcher = xcm.NewLocalMatcher()
	}
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mailer.SESRegion,
			AccessKeyID:        cfg.Mailer.SESAccessKeyID,
			SecretAccessKey:    cfg.Mailer.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Mailer.SESInsecureTLS,
		},
	})
	if err != nil {
		logger.Error("create mailer", "error", err)
		os.Exit(1)
	}

	// Services
	eligibility := services.NewEligibility(events, participants, orders, statusIndex)
	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer())
	eventSvc := services.NewEventService(events, contacts, eligibility)
	sessionSvc := services.NewSessionService(sessions, participants, statusIndex)
	registrationSvc := services.NewRegistrationService(services.RegistrationServiceDeps{
		Logger:       logger,
		Events:       events,
		Contacts:     contacts,
		Participants: participants,
		Orders:       orders,
		Prices:       prices,
		Changes:      changes,
		Matcher:      matcher,
		Tokens:       tokens,
		Emails:       emailSvc,
		Eligibility:  eligibility,
		Statuses:     statusIndex,
		TokenTTL:     cfg.TokenTTL,
	})

	// HTTP delivery
	eventController := controllers.NewEventController(logger, eventSvc, sessionSvc)
	registrationController := controllers.NewRegistrationController(logger, registrationSvc)
	sessionController := controllers.NewSessionController(logger, sessionSvc, tokens)
	mux := delivery.NewRouter(eventController, registrationController, sessionController)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.RequestID(handler)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// loadStatusIndex reads status and role metadata from the database, falling
// back to the built-in defaults when the tables are empty.
func loadStatusIndex(ctx context.Context, repo domain.StatusRepository, logger interface{ Warn(string, ...any) }) (*domain.StatusIndex, error) {
	statuses, err := repo.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	roles, err := repo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	if len(statuses) == 0 {
		logger.Warn("no participant statuses configured, using defaults")
		statuses = domain.DefaultStatuses()
	}
	if len(roles) == 0 {
		roles = domain.DefaultRoles()
	}
	return domain.NewStatusIndex(statuses, roles), nil
}
