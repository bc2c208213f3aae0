package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[memoryKey]Flag
}

type memoryKey struct {
	projectID string
	key       string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags: make(map[memoryKey]Flag),
	}
}

// FindFlag retrieves a single flag by project and key.
// The returned flag is a copy; callers may modify it freely.
func (m *MemoryStore) FindFlag(ctx context.Context, projectID, flagKey string) (*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[memoryKey{projectID: projectID, key: flagKey}]
	if !exists {
		return nil, ErrFlagNotFound
	}
	out := cloneFlag(flag)
	return &out, nil
}

// ListFlags retrieves all flags for the given project.
func (m *MemoryStore) ListFlags(ctx context.Context, projectID string) ([]Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Flag, 0)
	for k, flag := range m.flags {
		if k.projectID == projectID {
			result = append(result, cloneFlag(flag))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// UpsertFlag creates or updates a flag in memory.
func (m *MemoryStore) UpsertFlag(ctx context.Context, params UpsertParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey{projectID: params.ProjectID, key: params.Key}
	id := uuid.NewString()
	if existing, ok := m.flags[k]; ok {
		id = existing.ID
	}

	m.flags[k] = Flag{
		ID:          id,
		ProjectID:   params.ProjectID,
		Key:         params.Key,
		Description: params.Description,
		Rules:       sortRules(params.Rules),
		Variants:    append([]Variant{}, params.Variants...),
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

// DeleteFlag removes a flag from memory.
func (m *MemoryStore) DeleteFlag(ctx context.Context, projectID, flagKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, memoryKey{projectID: projectID, key: flagKey})
	return nil
}

// Ping always succeeds for MemoryStore.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
