package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps records and blobs in process memory. It backs unit
// tests and ephemeral runs where no data directory is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
	blobs   map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]string),
		blobs:   make(map[string][]byte),
	}
}

// Get returns the record stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[key]
	return value, ok, nil
}

// Set stores the record under key.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = value
	return nil
}

// Reset drops every record and blob.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]string)
	s.blobs = make(map[string][]byte)
	return nil
}

// Put stores a blob under the movie id.
func (s *MemoryStore) Put(ctx context.Context, id string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read blob %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = data
	return int64(len(data)), nil
}

// Open returns a reader over the blob stored under the movie id.
func (s *MemoryStore) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	s.mu.RLock()
	data, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, 0, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

// Delete removes the blob stored under the movie id.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, id)
	return nil
}
