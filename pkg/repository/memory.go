package repository

import (
	"context"
	"sync"

	"github.com/m-mizutani/samcore/pkg/model"
)

// memoryRepo implements Repository in process memory. It backs the degraded
// mode when persistent storage is unavailable, and serves as the repository
// double in tests. Contents last for the process lifetime only.
type memoryRepo struct {
	mu        sync.RWMutex
	sessionID model.SessionID
	profile   *model.UserProfile
	records   map[model.SessionID][]*model.Record
}

// NewMemory creates an in-memory repository.
func NewMemory() Repository {
	return &memoryRepo{
		records: make(map[model.SessionID][]*model.Record),
	}
}

func (r *memoryRepo) GetSessionID(ctx context.Context) (model.SessionID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionID, nil
}

func (r *memoryRepo) PutSessionID(ctx context.Context, id model.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionID = id
	return nil
}

func (r *memoryRepo) PutRecord(ctx context.Context, record *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.records[record.SessionID] = append(r.records[record.SessionID], &copied)
	return nil
}

func (r *memoryRepo) ListRecords(ctx context.Context, id model.SessionID) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]*model.Record, 0, len(r.records[id]))
	for _, record := range r.records[id] {
		copied := *record
		records = append(records, &copied)
	}
	return records, nil
}

func (r *memoryRepo) ClearRecords(ctx context.Context, id model.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *memoryRepo) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.profile == nil {
		return nil, nil
	}
	copied := *r.profile
	return &copied, nil
}

func (r *memoryRepo) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *profile
	r.profile = &copied
	return nil
}

func (r *memoryRepo) Close() error {
	return nil
}
