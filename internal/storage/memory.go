package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps objects in memory. Used for dry runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	publicURL string
	objects   map[string]PutObjectInput
	puts      int
	failWith  error
}

func NewMemoryStore(publicURL string) *MemoryStore {
	return &MemoryStore{publicURL: publicURL, objects: make(map[string]PutObjectInput)}
}

// FailWith makes every later PutObject return err. Pass nil to reset.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

func (s *MemoryStore) PutObject(ctx context.Context, input PutObjectInput) (string, error) {
	if err := validateKey(input.Key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failWith != nil {
		return "", s.failWith
	}
	input.Data = append([]byte(nil), input.Data...)
	s.objects[input.Key] = input
	return joinURL(s.publicURL, input.Key), nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return joinURL(s.publicURL, key)
}

// Object returns the stored object for key.
func (s *MemoryStore) Object(key string) (PutObjectInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Puts counts PutObject calls, including failed ones.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
