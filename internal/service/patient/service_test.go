package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository/memory"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	apperrors "github.com/jwalitptl/patientpal-api/pkg/errors"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, eventType string, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

var now = time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, events *mockRecorder) (*Service, *memory.PatientRepository) {
	t.Helper()
	repo := memory.NewPatientRepository()
	svc := NewService(repo, events, calendar.NewNormalizer(time.UTC), func() time.Time { return now }, nil)
	return svc, repo
}

func validRequest() *model.CreatePatientRequest {
	return &model.CreatePatientRequest{
		FullName:   "Alice Wonderland",
		NationalID: "ID123456",
		DOB:        "1994-01-15",
		Address:    "123 Fantasy Lane",
		Phone:      "555-0101",
	}
}

func TestCreatePatient(t *testing.T) {
	events := &mockRecorder{}
	events.On("Record", mock.Anything, model.EventPatientCreated, mock.AnythingOfType("*model.Patient")).Return(nil)
	svc, repo := newTestService(t, events)

	p, err := svc.CreatePatient(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, now, p.CreatedAt)

	stored, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Wonderland", stored.FullName)
	events.AssertExpectations(t)
}

func TestCreatePatientValidation(t *testing.T) {
	svc, _ := newTestService(t, &mockRecorder{})

	cases := map[string]func(r *model.CreatePatientRequest){
		"full_name":   func(r *model.CreatePatientRequest) { r.FullName = "Al" },
		"national_id": func(r *model.CreatePatientRequest) { r.NationalID = "1234" },
		"address":     func(r *model.CreatePatientRequest) { r.Address = "Lane" },
		"phone":       func(r *model.CreatePatientRequest) { r.Phone = "555-CALL" },
	}
	for field, mutate := range cases {
		req := validRequest()
		mutate(req)

		_, err := svc.CreatePatient(context.Background(), req)
		appErr, ok := apperrors.As(err)
		require.True(t, ok, field)
		assert.Contains(t, appErr.Fields, field)
	}

	for _, dob := range []string{"15/01/1994", "1994-02-30", "2024-08-16"} {
		req := validRequest()
		req.DOB = dob
		_, err := svc.CreatePatient(context.Background(), req)
		appErr, ok := apperrors.As(err)
		require.True(t, ok, dob)
		assert.Contains(t, appErr.Fields, "dob", dob)
	}
}

func TestCreatePatientSurvivesEventFailure(t *testing.T) {
	events := &mockRecorder{}
	events.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("outbox full"))
	svc, _ := newTestService(t, events)

	_, err := svc.CreatePatient(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestUpdatePatient(t *testing.T) {
	events := &mockRecorder{}
	events.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, _ := newTestService(t, events)
	ctx := context.Background()

	p, err := svc.CreatePatient(ctx, validRequest())
	require.NoError(t, err)

	phone := "+52 55 1234 5678"
	updated, err := svc.UpdatePatient(ctx, p.ID, &model.UpdatePatientRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "Alice Wonderland", updated.FullName)

	bad := "x"
	_, err = svc.UpdatePatient(ctx, p.ID, &model.UpdatePatientRequest{FullName: &bad})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.UpdatePatient(ctx, uuid.New(), &model.UpdatePatientRequest{Phone: &phone})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	events.AssertCalled(t, "Record", mock.Anything, model.EventPatientUpdated, mock.Anything)
}

func TestDeletePatient(t *testing.T) {
	events := &mockRecorder{}
	events.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, _ := newTestService(t, events)
	ctx := context.Background()

	p, err := svc.CreatePatient(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePatient(ctx, p.ID))
	_, err = svc.GetPatient(ctx, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.True(t, apperrors.Is(svc.DeletePatient(ctx, p.ID), apperrors.ErrNotFound))
}

func TestListPatientsDefaultsToTenPerPage(t *testing.T) {
	events := &mockRecorder{}
	events.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, repo := newTestService(t, events)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		p := &model.Patient{Base: model.Base{ID: uuid.New(), CreatedAt: now.Add(time.Duration(i) * time.Minute)}, FullName: "Patient", NationalID: "ID00000"}
		require.NoError(t, repo.Create(ctx, p))
	}

	page, total, err := svc.ListPatients(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, page, model.DefaultPageSize)

	filters := &model.PatientFilters{Pagination: model.Pagination{Page: 2}}
	page, _, err = svc.ListPatients(ctx, filters)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestAge(t *testing.T) {
	svc, _ := newTestService(t, &mockRecorder{})

	assert.Equal(t, 30, svc.Age(&model.Patient{DOB: "1994-01-15"}))
	assert.Equal(t, 29, svc.Age(&model.Patient{DOB: "1994-08-16"}))
	assert.Equal(t, 0, svc.Age(&model.Patient{DOB: "garbage"}))
}
