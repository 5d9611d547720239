package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
)

var _ repository.PatientRepository = (*PatientRepository)(nil)

// PatientRepository keeps patients in process memory. Callers always receive
// copies, so mutating a returned patient never changes the store.
type PatientRepository struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]model.Patient
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[uuid.UUID]model.Patient)}
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patients[patient.ID]; exists {
		return fmt.Errorf("patient %s already exists", patient.ID)
	}
	r.patients[patient.ID] = *patient
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[patient.ID]; !ok {
		return repository.ErrNotFound
	}
	r.patients[patient.ID] = *patient
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *PatientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	if filters == nil {
		filters = &model.PatientFilters{}
	}
	term := strings.ToLower(strings.TrimSpace(filters.Search))

	r.mu.RLock()
	matches := make([]*model.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.FullName), term) &&
			!strings.Contains(strings.ToLower(p.NationalID), term) {
			continue
		}
		p := p
		matches = append(matches, &p)
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})

	total := len(matches)
	if filters.PageSize <= 0 {
		return matches, total, nil
	}
	return page(matches, filters.Offset(), filters.PageSize), total, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
