package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
)

var _ repository.MedicalRecordRepository = (*MedicalRecordRepository)(nil)

type MedicalRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*model.MedicalRecord
}

func NewMedicalRecordRepository() *MedicalRecordRepository {
	return &MedicalRecordRepository{records: make(map[uuid.UUID]*model.MedicalRecord)}
}

func clone(r *model.MedicalRecord) *model.MedicalRecord {
	c := *r
	if r.ExamResults != nil {
		c.ExamResults = append(model.ExamResults(nil), r.ExamResults...)
	}
	if r.NextAppointmentDate != nil {
		date := *r.NextAppointmentDate
		c.NextAppointmentDate = &date
	}
	return &c
}

func (r *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return fmt.Errorf("medical record %s already exists", record.ID)
	}
	r.records[record.ID] = clone(record)
	return nil
}

func (r *MedicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(rec), nil
}

func (r *MedicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; !ok {
		return repository.ErrNotFound
	}
	r.records[record.ID] = clone(record)
	return nil
}

func (r *MedicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	out := r.collect(func(rec *model.MedicalRecord) bool { return rec.PatientID == patientID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MedicalRecordRepository) ListScheduled(ctx context.Context) ([]*model.MedicalRecord, error) {
	out := r.collect(func(rec *model.MedicalRecord) bool { return rec.HasAppointment() })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MedicalRecordRepository) collect(keep func(*model.MedicalRecord) bool) []*model.MedicalRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.MedicalRecord, 0)
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, clone(rec))
		}
	}
	return out
}
