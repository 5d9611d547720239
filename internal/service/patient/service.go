package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/internal/service/event"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	apperrors "github.com/jwalitptl/patientpal-api/pkg/errors"
	"github.com/jwalitptl/patientpal-api/pkg/logger"
	"github.com/jwalitptl/patientpal-api/pkg/validator"
)

type Service struct {
	repo       repository.PatientRepository
	events     event.Recorder
	normalizer *calendar.Normalizer
	now        func() time.Time
	logger     *logger.Logger
}

func NewService(repo repository.PatientRepository, events event.Recorder, normalizer *calendar.Normalizer, now func() time.Time, log *logger.Logger) *Service {
	if events == nil {
		events = event.Discard{}
	}
	if normalizer == nil {
		normalizer = calendar.NewNormalizer(nil)
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:       repo,
		events:     events,
		normalizer: normalizer,
		now:        now,
		logger:     log,
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FullName:   req.FullName,
		NationalID: req.NationalID,
		DOB:        req.DOB,
		Address:    req.Address,
		Phone:      req.Phone,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.record(ctx, model.EventPatientCreated, patient)
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(patient)
	if err := s.validate(&model.CreatePatientRequest{
		FullName:   patient.FullName,
		NationalID: patient.NationalID,
		DOB:        patient.DOB,
		Address:    patient.Address,
		Phone:      patient.Phone,
	}); err != nil {
		return nil, err
	}

	patient.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.record(ctx, model.EventPatientUpdated, patient)
	return patient, nil
}

// DeletePatient removes the patient only. Their medical records stay and
// show up as appointments for an unknown patient.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.record(ctx, model.EventPatientDeleted, map[string]string{"id": id.String()})
	return nil
}

// ListPatients returns one page of patients, newest first, and the total
// number of matches.
func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	if filters == nil {
		filters = &model.PatientFilters{}
	}
	filters.Normalize()

	patients, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

// Age is the patient's age in whole years today, or 0 when the birth date
// cannot be read.
func (s *Service) Age(patient *model.Patient) int {
	dob, ok := s.normalizer.Parse(patient.DOB)
	if !ok {
		return 0
	}
	return calendar.Age(dob, s.normalizer.Today(s.now()))
}

func (s *Service) validate(req *model.CreatePatientRequest) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	dob, _ := calendar.ParseISO(req.DOB)
	if dob.After(s.normalizer.Today(s.now())) {
		return apperrors.Validation(map[string]string{"dob": "must not be in the future"})
	}
	return nil
}

func (s *Service) record(ctx context.Context, eventType string, payload interface{}) {
	if err := s.events.Record(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "Failed to record event", "event_type", eventType)
	}
}
