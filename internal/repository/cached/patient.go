// Package cached decorates repositories with an in-process read-through cache.
package cached

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
	"github.com/jwalitptl/patientpal-api/pkg/metrics"
)

var _ repository.PatientRepository = (*PatientRepository)(nil)

// PatientRepository caches single-patient lookups. Listings always go to the
// underlying repository.
type PatientRepository struct {
	next    repository.PatientRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func NewPatientRepository(next repository.PatientRepository, ttl, cleanupInterval time.Duration, m *metrics.Metrics) *PatientRepository {
	return &PatientRepository{
		next:    next,
		cache:   cache.New(ttl, cleanupInterval),
		metrics: m,
	}
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	if err := r.next.Create(ctx, patient); err != nil {
		return err
	}
	r.store(patient)
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	if cached, found := r.cache.Get(id.String()); found {
		r.count("hit")
		p := *cached.(*model.Patient)
		return &p, nil
	}
	r.count("miss")

	patient, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(patient)
	return patient, nil
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	if err := r.next.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.cache.Delete(patient.ID.String())
		}
		return err
	}
	r.store(patient)
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return r.next.Delete(ctx, id)
}

func (r *PatientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	return r.next.List(ctx, filters)
}

func (r *PatientRepository) store(patient *model.Patient) {
	p := *patient
	r.cache.SetDefault(p.ID.String(), &p)
}

func (r *PatientRepository) count(result string) {
	if r.metrics != nil {
		r.metrics.CacheRequests.WithLabelValues(result).Inc()
	}
}
