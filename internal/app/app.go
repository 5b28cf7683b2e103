package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"studentpulse/internal/config"
	"studentpulse/internal/errors"
	"studentpulse/internal/infrastructure"
	customMiddleware "studentpulse/internal/middleware"
	"studentpulse/internal/services"
	handlers "studentpulse/internal/transport/http"
	"studentpulse/pkg/contracts"
)

// AppName is logged at startup
const AppName = "Student Pulse"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	ErrorHandler  *errors.ErrorHandler
	Services      *ServiceContainer

	serveErr chan error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Sessions  *services.SessionStore
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication wires every component from cfg. The logger is owned by
// the caller.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  errors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	sessions := services.NewSessionStore(a.Config.Session, a.Metrics, a.Logger)
	pipeline := services.NewPipeline(a.Config, a.Logger)

	a.Services = &ServiceContainer{
		Sessions:  sessions,
		Dashboard: services.NewDashboardService(pipeline, sessions, a.Metrics, a.Config.Upload.PreviewRows, a.Logger),
		Health:    services.NewHealthService(contracts.Version, contracts.BuildTime, sessions, a.Logger),
	}
}

// setupRouter builds the router. /metrics sits outside the main group so
// scrapes skip request logging and rate limiting.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	dashboardHandler, err := handlers.NewDashboardHandler(a.Services.Dashboard, a.ErrorHandler, a.Config.Upload.MaxBytes, a.Logger)
	if err != nil {
		return err
	}
	sessionHandler := handlers.NewSessionHandler(
		a.Services.Dashboard,
		customMiddleware.NewRequestValidator(a.Logger),
		a.ErrorHandler,
		a.Config.Upload.MaxBytes,
		a.Logger,
	)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Group(func(r chi.Router) {
		// RequestID -> RealIP -> OTel -> Logger -> Recoverer -> Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		dashboardHandler.Register(r)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			healthHandler.Register(r)
			r.Mount("/sessions", sessionHandler.Routes())
		})
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
	a.serveErr = make(chan error, 1)
}

// Start starts the session janitor and the HTTP server. Listen errors are
// reported to Run.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.Services.Sessions.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://%s", a.Server.Addr)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Services.Sessions.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
		return a.Stop(context.Background())
	case err := <-a.serveErr:
		return stderrors.Join(fmt.Errorf("server error: %w", err), a.Stop(context.Background()))
	}
}
