// Package app assembles stores and services from configuration for the
// binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/handler"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/internal/repository/cached"
	"github.com/jwalitptl/patientpal-api/internal/repository/memory"
	"github.com/jwalitptl/patientpal-api/internal/repository/postgres"
	"github.com/jwalitptl/patientpal-api/internal/service/appointment"
	"github.com/jwalitptl/patientpal-api/internal/service/event"
	"github.com/jwalitptl/patientpal-api/internal/service/medical"
	"github.com/jwalitptl/patientpal-api/internal/service/patient"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
	"github.com/jwalitptl/patientpal-api/pkg/security"
)

const (
	encryptionSalt = "patientpal"
	encryptionInfo = "medical-records/notes/v1"
)

type Stores struct {
	Patients repository.PatientRepository
	Records  repository.MedicalRecordRepository
	Outbox   repository.OutboxRepository
	// DB is nil for the memory driver.
	DB *sqlx.DB
}

// OpenStores builds the repositories for cfg.Storage.Driver. The memory
// driver is seeded with demo data when cfg.Storage.Seed is set.
func OpenStores(ctx context.Context, cfg *config.Config, normalizer *calendar.Normalizer, m *metrics.Metrics, log *logger.Logger) (*Stores, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return openPostgres(cfg, m, log)
	default:
		return openMemory(ctx, cfg, normalizer, log)
	}
}

func openMemory(ctx context.Context, cfg *config.Config, normalizer *calendar.Normalizer, log *logger.Logger) (*Stores, error) {
	stores := &Stores{
		Patients: memory.NewPatientRepository(),
		Records:  memory.NewMedicalRecordRepository(),
		Outbox:   memory.NewOutboxRepository(),
	}

	if cfg.Storage.Seed {
		now := time.Now()
		if err := memory.Seed(ctx, stores.Patients, stores.Records, normalizer.Today(now), now); err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		log.Info("Seeded in-memory store with demo data")
	}
	return stores, nil
}

func openPostgres(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*Stores, error) {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	var encryptor security.Encryptor
	if cfg.Security.EncryptionSecret != "" {
		encryptor, err = security.NewEncryptorFromSecret(cfg.Security.EncryptionSecret, encryptionSalt, encryptionInfo)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create encryptor: %w", err)
		}
	} else {
		log.Warn("No encryption secret configured, clinical notes are stored in plaintext")
	}

	base := postgres.NewBaseRepository(db, m)
	patients := postgres.NewPatientRepository(base)
	if cfg.Cache.Enabled {
		patients = cached.NewPatientRepository(patients, cfg.Cache.TTL, cfg.Cache.CleanupInterval, m)
	}

	return &Stores{
		Patients: patients,
		Records:  postgres.NewMedicalRecordRepository(base, encryptor),
		Outbox:   postgres.NewOutboxRepository(base),
		DB:       db,
	}, nil
}

// Checkers returns the readiness probes for the open stores.
func (s *Stores) Checkers() map[string]handler.Checker {
	checkers := make(map[string]handler.Checker)
	if s.DB != nil {
		checkers["database"] = s.DB.PingContext
	}
	return checkers
}

func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

type Services struct {
	Patients     *patient.Service
	Medical      *medical.Service
	Appointments *appointment.Service
}

// NewServices wires the domain services over stores. Events go to the outbox
// only when it is enabled.
func NewServices(cfg *config.Config, stores *Stores, normalizer *calendar.Normalizer, m *metrics.Metrics, log *logger.Logger) *Services {
	var events event.Recorder = event.Discard{}
	if cfg.Outbox.Enabled {
		events = event.NewService(stores.Outbox)
	}

	projector := appointment.NewProjector(cfg.Calendar.Locale, normalizer, log, m)

	return &Services{
		Patients:     patient.NewService(stores.Patients, events, normalizer, nil, log),
		Medical:      medical.NewService(stores.Records, stores.Patients, events, normalizer, nil, log),
		Appointments: appointment.NewService(stores.Patients, stores.Records, projector, normalizer, nil),
	}
}
