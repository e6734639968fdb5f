package kvstore

import (
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and as a non-durable
// fallback when no state directory is available.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]json.RawMessage{}}
}

func (s *MemoryStore) Get(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return ErrKeyNotFound
	}
	return json.Unmarshal(raw, v)
}

func (s *MemoryStore) Put(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
