package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/repository"
)

var _ repository.OutboxRepository = (*OutboxRepository)(nil)

// OutboxRepository is an append-only event log kept in memory.
type OutboxRepository struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
	now    func() time.Time
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{now: time.Now}
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now

	stored := *event
	r.events = append(r.events, &stored)
	return nil
}

func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.OutboxEvent
	for _, evt := range r.events {
		if evt.Status != model.OutboxStatusPending {
			continue
		}
		c := *evt
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, evt := range r.events {
		if evt.ID != id {
			continue
		}
		now := r.now()
		evt.Status = status
		evt.ErrorMessage = errMsg
		evt.UpdatedAt = now
		switch status {
		case model.OutboxStatusProcessed:
			evt.ProcessedAt = &now
		case model.OutboxStatusFailed:
			evt.RetryCount++
		}
		return nil
	}
	return repository.ErrNotFound
}

func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var deleted int64
	for _, evt := range r.events {
		if evt.Status == model.OutboxStatusProcessed && evt.ProcessedAt != nil && evt.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, evt)
	}
	r.events = kept
	return deleted, nil
}

// Events returns a snapshot of every stored event in insertion order.
func (r *OutboxRepository) Events() []model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.OutboxEvent, len(r.events))
	for i, evt := range r.events {
		out[i] = *evt
	}
	return out
}
