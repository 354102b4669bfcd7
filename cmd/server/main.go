package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/actions"
	"github.com/Bukialo/crm-api/internal/config"
	"github.com/Bukialo/crm-api/internal/events"
	"github.com/Bukialo/crm-api/internal/handlers"
	"github.com/Bukialo/crm-api/internal/middleware"
	"github.com/Bukialo/crm-api/internal/migration"
	"github.com/Bukialo/crm-api/internal/notification"
	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/routes"
	"github.com/Bukialo/crm-api/internal/scheduler"
	"github.com/Bukialo/crm-api/internal/temporal"
	"github.com/Bukialo/crm-api/internal/temporal/activities"
	"github.com/Bukialo/crm-api/internal/temporal/workflows"
	"github.com/Bukialo/crm-api/internal/trigger"
	"github.com/Bukialo/crm-api/internal/whatsapp"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	temporalClient tc.Client
	logger         zerolog.Logger
	notifications  notification.Service
	dispatcher     *trigger.Dispatcher
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	goose.SetLogger(migration.NewGooseAdapter(logger))

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Notification service, with email alerting when SMTP is configured.
	notificationRepo := repository.NewNotificationRepository(db)
	var notifiers []notification.Notifier
	var mailer notification.Mailer
	if cfg.Email.Enabled() {
		smtpMailer, err := notification.NewSMTPMailer(cfg.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure mailer")
		}
		mailer = smtpMailer
		if len(cfg.Email.AlertRecipients) > 0 {
			notifiers = append(notifiers, notification.NewEmailNotifier(mailer, cfg.Email.AlertRecipients, logger))
		}
	} else {
		logger.Warn().Msg("SMTP is not configured; SEND_EMAIL actions will fail")
	}
	notificationService := notification.NewService(notificationRepo, logger, notifiers...)

	// Initialize Temporal client.
	temporalClient, err := tc.Dial(tc.Options{
		Logger: temporal.NewLogAdapter(logger),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}
	defer temporalClient.Close()

	app := &application{
		config:         cfg,
		db:             db,
		temporalClient: temporalClient,
		logger:         logger,
		notifications:  notificationService,
	}

	automationRepo := repository.NewAutomationRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	app.dispatcher = trigger.NewDispatcher(
		automationRepo,
		executionRepo,
		temporal.NewRunLauncher(temporalClient),
		logger,
	)

	// Start the Temporal worker in a separate goroutine.
	temporalWorker := app.startTemporalWorker(mailer, logger)

	// Background loops: scheduler for time-based triggers, Kafka consumer
	// for event ingestion when brokers are configured.
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	app.startScheduler(backgroundCtx, automationRepo, logger)
	kafkaConsumer := app.startKafkaConsumer(backgroundCtx, logger)
	if kafkaConsumer != nil {
		defer kafkaConsumer.Close()
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(automationRepo, executionRepo)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, temporalWorker, stopBackground, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(
	automationRepo repository.AutomationRepository,
	executionRepo repository.ExecutionRepository,
) http.Handler {
	healthHandler := handlers.NewHealthHandler(app.db)
	automationHandler := handlers.NewAutomationHandler(automationRepo, executionRepo, app.dispatcher, app.notifications, app.logger)
	executionHandler := handlers.NewExecutionHandler(executionRepo, app.logger)
	eventHandler := handlers.NewEventHandler(app.dispatcher, app.logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, app.logger)

	return routes.NewRouter(healthHandler, automationHandler, executionHandler, eventHandler, notificationHandler)
}

func (app *application) startTemporalWorker(mailer notification.Mailer, logger zerolog.Logger) worker.Worker {
	crmRepo := repository.NewCrmRepository(app.db)
	waClient := whatsapp.NewClient(app.config.WhatsApp, logger)

	activityImpl := &activities.Activities{
		ExecutionRepo: repository.NewExecutionRepository(app.db),
		Registry:      actions.NewDefaultRegistry(crmRepo, mailer, waClient),
		Notifications: app.notifications,
	}

	w := worker.New(app.temporalClient, temporal.TaskQueueName, worker.Options{})

	w.RegisterWorkflow(workflows.AutomationWorkflow)
	w.RegisterActivity(activityImpl)

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		logger.Info().Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	return w
}

func (app *application) startScheduler(ctx context.Context, automationRepo repository.AutomationRepository, logger zerolog.Logger) {
	s := scheduler.New(
		app.config.Scheduler.PollInterval,
		automationRepo,
		repository.NewCrmRepository(app.db),
		app.dispatcher,
		logger,
	)
	go func() {
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Scheduler exited")
		}
	}()
}

func (app *application) startKafkaConsumer(ctx context.Context, logger zerolog.Logger) *events.Consumer {
	if !app.config.Kafka.Enabled() {
		logger.Info().Msg("Kafka is not configured; events are accepted over HTTP only")
		return nil
	}

	consumer, err := events.NewConsumer(app.config.Kafka, app.dispatcher, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Kafka consumer exited")
		}
	}()
	return consumer
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, temporalWorker worker.Worker, stopBackground context.CancelFunc, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Stop the background loops before draining HTTP.
	stopBackground()

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	// Stop the Temporal worker.
	logger.Info().Msg("Stopping Temporal worker...")
	temporalWorker.Stop()
	logger.Info().Msg("Temporal worker stopped.")
}
