package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/stretchr/testify/mock"
)

type memoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStorage(seed map[string]string) *memoryStorage {
	values := map[string]string{}
	for k, v := range seed {
		values[k] = v
	}
	return &memoryStorage{values: values}
}

func (s *memoryStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("memory key %q: %w", key, domain.ErrStorageKeyNotFound)
	}
	return value, nil
}

func (s *memoryStorage) Put(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memoryStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

// fakeEvents is a minimal latest-only subscriber source for binding tests.
type fakeEvents struct {
	mu   sync.Mutex
	subs []chan domain.PushEvent
	subd chan struct{}
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{subd: make(chan struct{}, 8)}
}

func (f *fakeEvents) Subscribe() (<-chan domain.PushEvent, func()) {
	ch := make(chan domain.PushEvent, 1)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	f.subd <- struct{}{}

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, sub := range f.subs {
			if sub == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

func (f *fakeEvents) publish(event domain.PushEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func mockAnyContext() interface{} {
	return mock.Anything
}
