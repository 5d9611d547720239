package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
)

var base = time.Date(2024, time.August, 1, 9, 0, 0, 0, time.UTC)

func newPatient(name, nationalID string, createdOffset time.Duration) *model.Patient {
	return &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: base.Add(createdOffset),
			UpdatedAt: base.Add(createdOffset),
		},
		FullName:   name,
		NationalID: nationalID,
		DOB:        "1990-01-01",
		Address:    "1 Main Street",
		Phone:      "555-0101",
	}
}

func TestPatientRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepository()
	p := newPatient("Alice Wonderland", "ID123456", 0)

	require.NoError(t, repo.Create(ctx, p))
	assert.Error(t, repo.Create(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Wonderland", got.FullName)

	got.FullName = "mutated"
	again, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Wonderland", again.FullName)

	p.Phone = "555-9999"
	require.NoError(t, repo.Update(ctx, p))
	got, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-9999", got.Phone)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), repository.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, p), repository.ErrNotFound)
}

func TestPatientRepositoryListSearchAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepository()
	require.NoError(t, repo.Create(ctx, newPatient("Alice Wonderland", "ID123456", 0)))
	require.NoError(t, repo.Create(ctx, newPatient("Bob The Builder", "ID789012", time.Minute)))
	require.NoError(t, repo.Create(ctx, newPatient("Charlie Brown", "ID345678", 2*time.Minute)))

	all, total, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "Charlie Brown", all[0].FullName, "newest first")

	found, total, err := repo.List(ctx, &model.PatientFilters{Search: "BOB"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Bob The Builder", found[0].FullName)

	found, _, err = repo.List(ctx, &model.PatientFilters{Search: "5678"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Charlie Brown", found[0].FullName)

	paged, total, err := repo.List(ctx, &model.PatientFilters{Pagination: model.Pagination{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, paged, 1)
	assert.Equal(t, "Alice Wonderland", paged[0].FullName)

	beyond, _, err := repo.List(ctx, &model.PatientFilters{Pagination: model.Pagination{Page: 5, PageSize: 2}})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestMedicalRecordRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMedicalRecordRepository()
	patientID := uuid.New()
	date := "2024-08-15"

	older := &model.MedicalRecord{
		Base:                model.Base{ID: uuid.New(), CreatedAt: base},
		PatientID:           patientID,
		CurrentIllness:      "Flu",
		Treatment:           "Rest",
		ExamResults:         model.ExamResults{{Type: model.ExamResultText, Content: "ok"}},
		NextAppointmentDate: &date,
	}
	newer := &model.MedicalRecord{
		Base:           model.Base{ID: uuid.New(), CreatedAt: base.Add(time.Hour)},
		PatientID:      patientID,
		CurrentIllness: "Checkup",
		Treatment:      "None",
	}
	other := &model.MedicalRecord{
		Base:      model.Base{ID: uuid.New(), CreatedAt: base},
		PatientID: uuid.New(),
	}
	for _, r := range []*model.MedicalRecord{older, newer, other} {
		require.NoError(t, repo.Create(ctx, r))
	}

	date = "2099-01-01"
	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-08-15", *got.NextAppointmentDate, "store keeps its own copy")

	list, err := repo.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	scheduled, err := repo.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, older.ID, scheduled[0].ID)

	require.NoError(t, repo.Delete(ctx, older.ID))
	scheduled, err = repo.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, scheduled)
}

func TestOutboxRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()

	assert.Error(t, repo.Create(ctx, nil))
	assert.Error(t, repo.Create(ctx, &model.OutboxEvent{EventType: "x"}))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.OutboxEvent{
			EventType: model.EventPatientCreated,
			Payload:   json.RawMessage(`{}`),
		}))
	}

	pending, err := repo.GetPendingEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, repo.UpdateStatus(ctx, pending[0].ID, model.OutboxStatusProcessed, nil))
	msg := "redis down"
	require.NoError(t, repo.UpdateStatus(ctx, pending[1].ID, model.OutboxStatusFailed, &msg))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), model.OutboxStatusProcessed, nil), repository.ErrNotFound)

	pending, err = repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	events := repo.Events()
	assert.NotNil(t, events[0].ProcessedAt)
	assert.Equal(t, 1, events[1].RetryCount)
	assert.Equal(t, "redis down", *events[1].ErrorMessage)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	patients := NewPatientRepository()
	records := NewMedicalRecordRepository()
	today := calendar.MustNew(2024, time.August, 1)

	require.NoError(t, Seed(ctx, patients, records, today, base))

	all, total, err := patients.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, "Diana Prince", all[0].FullName)

	scheduled, err := records.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 5)
	assert.Equal(t, "2024-08-04", *scheduled[0].NextAppointmentDate)
	assert.Equal(t, "2024-08-01", *scheduled[4].NextAppointmentDate)
}
