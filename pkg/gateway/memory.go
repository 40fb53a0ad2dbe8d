package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/openfroyo/confsync/pkg/model"
)

// Memory is an in-memory Gateway used by tests. It counts the calls it
// receives.
type Memory struct {
	mu       sync.RWMutex
	entities map[model.Reference]*RemoteEntity
	nextID   int64
	failures map[model.Reference]error
	stats    Stats
	now      func() time.Time
}

// Stats counts gateway calls.
type Stats struct {
	Retrieves int
	Creates   int
	Updates   int
}

// Writes returns the number of mutating calls.
func (s Stats) Writes() int {
	return s.Creates + s.Updates
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{
		entities: make(map[model.Reference]*RemoteEntity),
		failures: make(map[model.Reference]error),
		nextID:   1,
		now:      time.Now,
	}
}

// Seed stores entities as live state without counting writes.
func (m *Memory) Seed(entities ...model.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		if _, err := m.store(e, time.Time{}); err != nil {
			return err
		}
	}
	return nil
}

// FailWrites makes every Create or Update of ref fail with err.
func (m *Memory) FailWrites(ref model.Reference, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[ref] = err
}

// Stats returns the calls received so far.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Len returns the number of live entities.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// Retrieve implements Gateway.
func (m *Memory) Retrieve(_ context.Context, ref model.Reference) (*RemoteEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Retrieves++

	re, ok := m.entities[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return cloneRemote(re)
}

// RetrieveMany implements Gateway. Results are ordered by remote ID.
func (m *Memory) RetrieveMany(_ context.Context, kind model.Kind, filter Filter) ([]*RemoteEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Retrieves++

	matches := make([]*RemoteEntity, 0)
	for _, re := range m.entities {
		if re.Ref.Kind == kind && filter.Matches(re.Ref) {
			matches = append(matches, re)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	out := make([]*RemoteEntity, 0, len(matches))
	for _, re := range matches {
		c, err := cloneRemote(re)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Create implements Gateway.
func (m *Memory) Create(_ context.Context, entity model.Entity) (*RemoteEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Creates++

	ref := entity.Ref()
	if err := m.failures[ref]; err != nil {
		return nil, err
	}
	if _, exists := m.entities[ref]; exists {
		return nil, fmt.Errorf("%s: %w", ref, ErrAlreadyExists)
	}
	re, err := m.store(entity, m.now())
	if err != nil {
		return nil, err
	}
	return cloneRemote(re)
}

// Update implements Gateway.
func (m *Memory) Update(_ context.Context, entity model.Entity, _ *RemoteEntity) (*RemoteEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Updates++

	ref := entity.Ref()
	if err := m.failures[ref]; err != nil {
		return nil, err
	}
	current, ok := m.entities[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}

	merged, err := model.Merge(entity, current.Entity)
	if err != nil {
		return nil, err
	}
	current.Entity = merged
	current.UpdatedAt = m.now()
	return cloneRemote(current)
}

// store must be called with the lock held.
func (m *Memory) store(e model.Entity, at time.Time) (*RemoteEntity, error) {
	clone, err := model.Clone(e)
	if err != nil {
		return nil, err
	}
	re := &RemoteEntity{
		Ref:       e.Ref(),
		ID:        m.nextID,
		Entity:    clone,
		CreatedAt: at,
		UpdatedAt: at,
	}
	m.nextID++
	m.entities[re.Ref] = re
	return re, nil
}

func cloneRemote(re *RemoteEntity) (*RemoteEntity, error) {
	e, err := model.Clone(re.Entity)
	if err != nil {
		return nil, err
	}
	out := *re
	out.Entity = e
	return &out, nil
}
