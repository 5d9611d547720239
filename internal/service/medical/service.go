package medical

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	records    repository.MedicalRecordRepository
	patients   repository.PatientRepository
	events     event.Recorder
	normalizer *calendar.Normalizer
	now        func() time.Time
	logger     *logger.Logger
}

func NewService(
	records repository.MedicalRecordRepository,
	patients repository.PatientRepository,
	events event.Recorder,
	normalizer *calendar.Normalizer,
	now func() time.Time,
	log *logger.Logger,
) *Service {
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
		records:    records,
		patients:   patients,
		events:     events,
		normalizer: normalizer,
		now:        now,
		logger:     log,
	}
}

func (s *Service) CreateRecord(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if err := s.ensurePatient(ctx, patientID); err != nil {
		return nil, err
	}
	req.NextAppointmentDate = trimmedDate(req.NextAppointmentDate)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	next := req.NextAppointmentDate
	if err := s.checkNotPast(next); err != nil {
		return nil, err
	}

	now := s.now()
	record := &model.MedicalRecord{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:           patientID,
		CurrentIllness:      req.CurrentIllness,
		Treatment:           req.Treatment,
		ExamResults:         model.ExamResults(req.ExamResults),
		NextAppointmentDate: next,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create medical record: %w", err)
	}

	s.record(ctx, model.EventMedicalRecordCreated, record)
	return record, nil
}

// GetRecord returns the record only when it belongs to patientID.
func (s *Service) GetRecord(ctx context.Context, patientID, recordID uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical record", err)
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	if record.PatientID != patientID {
		return nil, apperrors.NotFound("medical record", nil)
	}
	return record, nil
}

func (s *Service) UpdateRecord(ctx context.Context, patientID, recordID uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.GetRecord(ctx, patientID, recordID)
	if err != nil {
		return nil, err
	}

	previous := record.NextAppointmentDate
	req.Apply(record)
	record.NextAppointmentDate = trimmedDate(record.NextAppointmentDate)

	if err := validator.Validate(&model.CreateMedicalRecordRequest{
		CurrentIllness:      record.CurrentIllness,
		Treatment:           record.Treatment,
		ExamResults:         record.ExamResults,
		NextAppointmentDate: record.NextAppointmentDate,
	}); err != nil {
		return nil, err
	}

	// A stored date that has since passed stays valid until it is changed.
	if !sameDate(previous, record.NextAppointmentDate) {
		if err := s.checkNotPast(record.NextAppointmentDate); err != nil {
			return nil, err
		}
	}

	record.UpdatedAt = s.now()
	if err := s.records.Update(ctx, record); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical record", err)
		}
		return nil, fmt.Errorf("failed to update medical record: %w", err)
	}

	s.record(ctx, model.EventMedicalRecordUpdated, record)
	return record, nil
}

func (s *Service) DeleteRecord(ctx context.Context, patientID, recordID uuid.UUID) error {
	if _, err := s.GetRecord(ctx, patientID, recordID); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, recordID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("medical record", err)
		}
		return fmt.Errorf("failed to delete medical record: %w", err)
	}

	s.record(ctx, model.EventMedicalRecordDeleted, map[string]string{
		"id":         recordID.String(),
		"patient_id": patientID.String(),
	})
	return nil
}

// ListRecords returns the patient's history, newest visit first.
func (s *Service) ListRecords(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	if err := s.ensurePatient(ctx, patientID); err != nil {
		return nil, err
	}

	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (s *Service) ensurePatient(ctx context.Context, patientID uuid.UUID) error {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return fmt.Errorf("failed to get patient: %w", err)
	}
	return nil
}

func (s *Service) checkNotPast(date *string) error {
	if date == nil {
		return nil
	}
	d, ok := calendar.ParseISO(*date)
	if !ok {
		return apperrors.Validation(map[string]string{"next_appointment_date": "must be a valid date (YYYY-MM-DD)"})
	}
	if d.Before(s.normalizer.Today(s.now())) {
		return apperrors.Validation(map[string]string{"next_appointment_date": "must not be in the past"})
	}
	return nil
}

func (s *Service) record(ctx context.Context, eventType string, payload interface{}) {
	if err := s.events.Record(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "Failed to record event", "event_type", eventType)
	}
}

func trimmedDate(date *string) *string {
	if date == nil {
		return nil
	}
	v := strings.TrimSpace(*date)
	if v == "" {
		return nil
	}
	return &v
}

func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
