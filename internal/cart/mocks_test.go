package cart

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/cart-session/internal/domain"
	"github.com/fjod/go_cart/cart-session/internal/store"
)

type mockStore struct {
	m      sync.RWMutex
	data   map[string]string
	getErr error
	setErr error
	gets   int
	sets   int
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}}
}

func (s *mockStore) Get(_ context.Context, key string) (string, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.gets++
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *mockStore) Set(_ context.Context, key, value string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *mockStore) put(key, value string) {
	s.m.Lock()
	defer s.m.Unlock()
	s.data[key] = value
}

func (s *mockStore) failGets(err error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.getErr = err
}

func (s *mockStore) failSets(err error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.setErr = err
}

func (s *mockStore) setCount() int {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.sets
}

func (s *mockStore) getCount() int {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.gets
}

func (s *mockStore) snapshot(key string) ([]domain.CartItem, bool) {
	s.m.RLock()
	raw, ok := s.data[key]
	s.m.RUnlock()
	if !ok {
		return nil, false
	}
	items, err := domain.DecodeSnapshot(raw)
	if err != nil {
		return nil, false
	}
	return items, true
}
