package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
	apperrors "github.com/jwalitptl/patientpal-api/pkg/errors"
)

type Service struct {
	patients   repository.PatientRepository
	records    repository.MedicalRecordRepository
	projector  *Projector
	normalizer *calendar.Normalizer
	now        func() time.Time
}

// NewService wires the projector to the stores it reads from. A nil clock
// means time.Now.
func NewService(patients repository.PatientRepository, records repository.MedicalRecordRepository, projector *Projector, normalizer *calendar.Normalizer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if normalizer == nil {
		normalizer = calendar.NewNormalizer(nil)
	}
	return &Service{
		patients:   patients,
		records:    records,
		projector:  projector,
		normalizer: normalizer,
		now:        now,
	}
}

// Today is the current calendar day in the configured zone.
func (s *Service) Today() calendar.Date {
	return s.normalizer.Today(s.now())
}

// Location is the zone calendar days are taken in.
func (s *Service) Location() *time.Location {
	return s.normalizer.Location()
}

// List projects every scheduled appointment through f.
func (s *Service) List(ctx context.Context, f Filter) ([]*model.Appointment, error) {
	patients, _, err := s.patients.List(ctx, &model.PatientFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	records, err := s.records.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled records: %w", err)
	}

	return s.projector.Project(records, patients, f, s.Today()), nil
}

// ListForPatient projects the appointments of a single patient.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, f Filter) ([]*model.Appointment, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}

	return s.projector.Project(records, []*model.Patient{patient}, f, s.Today()), nil
}
