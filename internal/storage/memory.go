package storage

import (
	"context"
	"sync"

	"modelfusion/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	resources   map[string][]byte
	snapshots   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources: make(map[string][]byte),
		snapshots: make(map[string][]byte),
	}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.resources = make(map[string][]byte)
	s.snapshots = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveResource(_ context.Context, id string, payload map[string]any) error {
	data, err := EncodeResource(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources[id] = data
	return nil
}

func (s *MemoryStore) GetResource(_ context.Context, id string) (map[string]any, bool, error) {
	s.mu.RLock()
	data, ok := s.resources[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	payload, err := DecodeResource(data)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *MemoryStore) DeleteResource(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.resources, id)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.FusionSnapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.ResourceID] = data
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (model.FusionSnapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return model.FusionSnapshot{}, false, nil
	}
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		return model.FusionSnapshot{}, false, err
	}
	return snapshot, true, nil
}
