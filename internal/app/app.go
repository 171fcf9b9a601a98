package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"qsignal/internal/access"
	"qsignal/internal/config"
	"qsignal/internal/enhance"
	"qsignal/internal/infrastructure"
	appmiddleware "qsignal/internal/middleware"
	"qsignal/internal/services"
	"qsignal/internal/session"
	handlers "qsignal/internal/transport/http"
	"qsignal/internal/validation"
)

// Version identifies the demo build.
const Version = "demo-v1.0.0"

// sessionSweepInterval is how often idle sessions are evicted.
const sessionSweepInterval = 5 * time.Minute

// Application is the dependency container for the demo service.
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Router     *chi.Mux
	Server     *http.Server
	Sessions   *session.Store
	Gate       *access.Gate
	Processing *services.ProcessingService
}

// NewApplication loads configuration and wires all components.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.Int64("max_file_bytes", cfg.Limits.MaxFileBytes),
		slog.Int("max_rows", cfg.Limits.MaxRows))

	limits := cfg.DomainLimits()

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Sessions: session.NewStore(cfg.Security.SessionTTL),
		Gate:     access.NewGate(cfg.Security.AccessCode, logger),
		Processing: services.NewProcessingService(
			validation.NewUploadValidator(limits, logger),
			enhance.NewEnhancer(cfg.Limits.MaxRows, logger),
			cfg.Processing.WatermarkTemplate,
			logger,
		),
	}

	app.Router = app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter builds the chi router with the session and gate middleware.
func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(a.Config.Server.RequestTimeout))
	r.Use(appmiddleware.Sessions(a.Sessions, a.Config.Security.CookieName, a.Logger))

	limits := a.Config.DomainLimits()
	accessHandler := handlers.NewAccessHandler(a.Gate, limits, a.Logger)
	processHandler := handlers.NewProcessHandler(a.Processing, a.Config.Processing.SampleRateHz, a.Logger)
	healthHandler := handlers.NewHealthHandler(Version)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Mount("/access", accessHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAccess(a.Logger))
			r.Mount("/process", processHandler.Routes())
		})
	})

	return r
}

// Run starts the HTTP server and blocks until shutdown.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if removed := a.Sessions.Sweep(); removed > 0 {
					a.Logger.Debug("expired sessions evicted", slog.Int("count", removed))
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	a.Logger.Info("shutdown complete",
		slog.Duration("shutdown_timeout", a.Config.Server.ShutdownTimeout),
		slog.String("stopped_at", time.Now().Format(time.RFC3339)))
	return nil
}
