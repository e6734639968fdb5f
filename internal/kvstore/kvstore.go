// Package kvstore is the client-local durable key-value store backing the
// throttle state, reward history and claimable-token map. Values are stored as
// JSON; the file implementation keeps one document per store and writes it
// atomically so a crash mid-write cannot corrupt persisted state.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Get(key string, v interface{}) error
	Put(key string, v interface{}) error
	Delete(key string) error
}

type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(dir, name string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, name+".json")}, nil
}

func (s *FileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}

	doc := map[string]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) save(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	raw, ok := doc[key]
	if !ok {
		return ErrKeyNotFound
	}
	return json.Unmarshal(raw, v)
}

func (s *FileStore) Put(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	doc[key] = raw
	return s.save(doc)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.save(doc)
}
