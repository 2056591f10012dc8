package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

// MemoryStore keeps records in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]subscription.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]subscription.Record)}
}

func (r *MemoryStore) Get(_ context.Context, scope, subjectID string) (*subscription.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.scopes[scope][subjectID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (r *MemoryStore) Put(_ context.Context, scope, subjectID string, rec *subscription.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.scopes[scope]
	if !ok {
		records = make(map[string]subscription.Record)
		r.scopes[scope] = records
	}
	stored := *cloneRecord(*rec)
	stored.SubjectID = subjectID
	records[subjectID] = stored
	return nil
}

func (r *MemoryStore) Patch(_ context.Context, scope, subjectID string, p subscription.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.scopes[scope][subjectID]
	if !ok {
		return subscription.ErrNotFound
	}
	p.Apply(&rec)
	r.scopes[scope][subjectID] = rec
	return nil
}

func (r *MemoryStore) Delete(_ context.Context, scope, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scopes[scope][subjectID]; !ok {
		return subscription.ErrNotFound
	}
	delete(r.scopes[scope], subjectID)
	return nil
}

func (r *MemoryStore) List(_ context.Context, scope string) ([]subscription.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]subscription.Record, 0, len(r.scopes[scope]))
	for _, rec := range r.scopes[scope] {
		records = append(records, *cloneRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SubjectID < records[j].SubjectID })
	return records, nil
}

func cloneRecord(rec subscription.Record) *subscription.Record {
	out := rec
	if rec.RenewedAt != nil {
		t := *rec.RenewedAt
		out.RenewedAt = &t
	}
	return &out
}
