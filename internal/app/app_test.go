package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patientpal-api/internal/config"
	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository/memory"
	"github.com/jwalitptl/patientpal-api/internal/service/appointment"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

func memoryConfig(seed, outbox bool) *config.Config {
	return &config.Config{
		Storage:  config.StorageConfig{Driver: "memory", Seed: seed},
		Outbox:   config.OutboxConfig{Enabled: outbox},
		Calendar: config.CalendarConfig{Locale: "es"},
	}
}

func TestOpenMemoryStoresSeedsDemoData(t *testing.T) {
	ctx := context.Background()
	normalizer := calendar.NewNormalizer(time.UTC)

	stores, err := OpenStores(ctx, memoryConfig(true, false), normalizer, metrics.NewNop(), logger.Nop())
	require.NoError(t, err)
	defer stores.Close()

	patients, total, err := stores.Patients.List(ctx, &model.PatientFilters{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, patients, 4)
	assert.Empty(t, stores.Checkers())

	svc := NewServices(memoryConfig(true, false), stores, normalizer, metrics.NewNop(), logger.Nop())
	upcoming, err := svc.Appointments.List(ctx, appointment.Upcoming())
	require.NoError(t, err)
	assert.NotEmpty(t, upcoming)
}

func TestOpenMemoryStoresWithoutSeed(t *testing.T) {
	stores, err := OpenStores(context.Background(), memoryConfig(false, false), calendar.NewNormalizer(time.UTC), metrics.NewNop(), logger.Nop())
	require.NoError(t, err)

	_, total, err := stores.Patients.List(context.Background(), &model.PatientFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestServicesRecordEventsOnlyWhenOutboxEnabled(t *testing.T) {
	ctx := context.Background()
	normalizer := calendar.NewNormalizer(time.UTC)
	req := &model.CreatePatientRequest{
		FullName:   "Diana Prince",
		NationalID: "ID000001",
		DOB:        "1980-03-22",
		Address:    "Themyscira",
		Phone:      "555-0404",
	}

	for _, enabled := range []bool{false, true} {
		cfg := memoryConfig(false, enabled)
		stores, err := OpenStores(ctx, cfg, normalizer, metrics.NewNop(), logger.Nop())
		require.NoError(t, err)

		svc := NewServices(cfg, stores, normalizer, metrics.NewNop(), logger.Nop())
		_, err = svc.Patients.CreatePatient(ctx, req)
		require.NoError(t, err)

		events := stores.Outbox.(*memory.OutboxRepository).Events()
		if enabled {
			assert.Len(t, events, 1)
		} else {
			assert.Empty(t, events)
		}
	}
}
