package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/email"
	"github.com/jwalitptl/patientpal-api/internal/handler"
	agenda "github.com/jwalitptl/patientpal-api/internal/worker"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/messaging/redis"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
	"github.com/jwalitptl/patientpal-api/pkg/worker"
)

// Background runs the outbox relay, outbox cleanup and agenda digest jobs
// that are enabled in the configuration.
type Background struct {
	cfg      *config.Config
	stores   *Stores
	services *Services
	metrics  *metrics.Metrics
	logger   *logger.Logger

	broker *redis.RedisBroker
	wg     sync.WaitGroup
}

func NewBackground(cfg *config.Config, stores *Stores, services *Services, m *metrics.Metrics, log *logger.Logger) *Background {
	return &Background{
		cfg:      cfg,
		stores:   stores,
		services: services,
		metrics:  m,
		logger:   log,
	}
}

// Start launches the enabled jobs and returns once they are running. The
// jobs stop when ctx is cancelled; Wait blocks until they have.
func (b *Background) Start(ctx context.Context) error {
	if b.cfg.Outbox.Enabled {
		broker, err := redis.NewRedisBroker(b.cfg.Redis.ToBrokerConfig(), &b.logger.ZL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.broker = broker

		processor, err := worker.NewOutboxProcessor(b.stores.Outbox, broker, b.cfg.Outbox.ToWorkerConfig(), b.logger, b.metrics)
		if err != nil {
			broker.Close()
			return err
		}
		cleanup := worker.NewOutboxCleanupWorker(b.stores.Outbox, b.cfg.Outbox.Retention, b.cfg.Outbox.CleanupInterval, b.logger)

		b.run(func() { processor.Start(ctx) })
		b.run(func() { cleanup.Start(ctx) })
	}

	if b.cfg.Agenda.Enabled {
		mailer := email.NewSMTPService(email.Config{
			Host:     b.cfg.Email.Host,
			Port:     b.cfg.Email.Port,
			Username: b.cfg.Email.Username,
			Password: b.cfg.Email.Password,
			From:     b.cfg.Email.From,
		})
		digest := agenda.NewAgendaDigest(b.services.Appointments, mailer, agenda.AgendaDigestConfig{
			Hour:       b.cfg.Agenda.Hour,
			Recipients: b.cfg.Agenda.Recipients,
			Locale:     b.cfg.Calendar.Locale,
		}, b.logger, b.metrics)

		b.run(func() { digest.Start(ctx) })
	}

	return nil
}

func (b *Background) run(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// Checkers adds the broker probe when the outbox relay is running.
func (b *Background) Checkers(into map[string]handler.Checker) {
	if b.broker != nil {
		into["redis"] = b.broker.Ping
	}
}

// Wait blocks until every job has returned, then closes the broker.
func (b *Background) Wait() {
	b.wg.Wait()
	if b.broker != nil {
		if err := b.broker.Close(); err != nil {
			b.logger.Error(err, "Failed to close redis broker")
		}
	}
}
