package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patientpal-api/internal/app"
	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/handler"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

func setupHealthCheck(checkers map[string]handler.Checker, port int, appLogger *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	handler.NewHandler(checkers, prometheus.DefaultGatherer).RegisterRoutes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(cfg.Logging.ToLoggerConfig())
	logger.SetGlobal(appLogger)
	appLogger = appLogger.WithFields(map[string]interface{}{"component": "worker"})

	if cfg.Storage.Driver != "postgres" {
		appLogger.Fatal(fmt.Errorf("storage driver %q", cfg.Storage.Driver), "The worker needs the postgres storage driver")
	}

	loc, err := cfg.Calendar.Location()
	if err != nil {
		appLogger.Fatal(err, "Invalid calendar timezone")
	}
	normalizer := calendar.NewNormalizer(loc)
	m := metrics.New(prometheus.DefaultRegisterer, "patientpal")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, normalizer, m, appLogger)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer stores.Close()

	services := app.NewServices(cfg, stores, normalizer, m, appLogger)
	background := app.NewBackground(cfg, stores, services, m, appLogger)
	if err := background.Start(ctx); err != nil {
		appLogger.Fatal(err, "Failed to start background jobs")
	}

	checkers := stores.Checkers()
	background.Checkers(checkers)
	health := setupHealthCheck(checkers, cfg.Server.WorkerPort, appLogger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("Shutting down...")
	cancel()

	background.Wait()
	if err := health.Shutdown(context.Background()); err != nil {
		appLogger.Error(err, "Failed to stop health check server")
	}
	appLogger.Info("Worker stopped")
}
