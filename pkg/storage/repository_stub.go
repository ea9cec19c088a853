package storage

import (
	"context"
	"sync"
)

// StubRepository is an in-memory Repository for tests. It can be told to fail writes.
type StubRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	FailWrite error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[string][]byte{}}
}

func (s *StubRepository) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *StubRepository) Store(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrite != nil {
		return s.FailWrite
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *StubRepository) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrite != nil {
		return s.FailWrite
	}
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Put seeds a raw value, bypassing FailWrite.
func (s *StubRepository) Put(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = []byte(value)
}

// Has reports whether key is stored.
func (s *StubRepository) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

func (s *StubRepository) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string][]byte{}
	s.FailWrite = nil
}
