package session

import (
	"slices"
	"sync"
)

// subscribers is an ordered observer list.
// Callbacks run synchronously, outside the lock, in subscription order.
type subscribers[T any] struct {
	mu    sync.Mutex
	next  uint64
	items []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// add registers fn and returns its idempotent unsubscribe handle.
func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	s.next++
	id := s.next
	s.items = append(s.items, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.items = slices.DeleteFunc(s.items, func(sub subscriber[T]) bool { return sub.id == id })
		})
	}
}

func (s *subscribers[T]) notify(v T) {
	s.mu.Lock()
	items := slices.Clone(s.items)
	s.mu.Unlock()

	for _, sub := range items {
		sub.fn(v)
	}
}

func (s *subscribers[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
