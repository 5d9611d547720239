package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patientpal-api/internal/app"
	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/handler"
	appointmentHandler "github.com/jwalitptl/patientpal-api/internal/handler/appointment"
	medicalHandler "github.com/jwalitptl/patientpal-api/internal/handler/medical"
	patientHandler "github.com/jwalitptl/patientpal-api/internal/handler/patient"
	"github.com/jwalitptl/patientpal-api/internal/router"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
	"github.com/jwalitptl/patientpal-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(cfg.Logging.ToLoggerConfig())
	logger.SetGlobal(appLogger)

	loc, err := cfg.Calendar.Location()
	if err != nil {
		appLogger.Fatal(err, "Invalid calendar timezone")
	}
	normalizer := calendar.NewNormalizer(loc)
	m := metrics.New(prometheus.DefaultRegisterer, "patientpal")
	validator.RegisterGin()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, normalizer, m, appLogger)
	if err != nil {
		appLogger.Fatal(err, "Failed to open storage", "driver", cfg.Storage.Driver)
	}
	defer stores.Close()

	services := app.NewServices(cfg, stores, normalizer, m, appLogger)
	checkers := stores.Checkers()

	// The in-memory stores are only visible to this process, so the jobs run
	// here instead of in cmd/worker.
	var background *app.Background
	if stores.DB == nil {
		background = app.NewBackground(cfg, stores, services, m, appLogger)
		if err := background.Start(ctx); err != nil {
			appLogger.Fatal(err, "Failed to start background jobs")
		}
		background.Checkers(checkers)
	}

	r := router.NewRouter(
		handler.NewHandler(checkers, prometheus.DefaultGatherer),
		m,
		router.FromConfig(cfg),
		patientHandler.NewHandler(services.Patients),
		medicalHandler.NewHandler(services.Medical),
		appointmentHandler.NewHandler(services.Appointments),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver, "locale", cfg.Calendar.Locale, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	cancel()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Server forced to shutdown")
	}

	if background != nil {
		background.Wait()
	}
	appLogger.Info("Server exited properly")
}
