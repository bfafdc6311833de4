package store

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/tickos/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service.
// It keeps entities of type *T mapped by a comparable key K obtained from the
// supplied keySelector. Entities are cloned on the way in and out so callers
// never share state with the store.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	clone       func(*T) *T
	filter      func(*T, []*dao.Parameter) bool
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, clone func(*T) *T) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
		clone:       clone,
	}
}

// WithFilter sets the List filter.
func (s *MemoryStore[K, T]) WithFilter(filter func(*T, []*dao.Parameter) bool) *MemoryStore[K, T] {
	s.filter = filter
	return s
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.clone(v)
	return nil
}

// Load returns a record by key or dao.ErrNotFound.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.clone(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// List returns the stored records matching parameters.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		if s.filter != nil && !s.filter(v, parameters) {
			continue
		}
		out = append(out, s.clone(v))
	}
	return out, nil
}

// Len returns the number of records.
func (s *MemoryStore[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SortBy sorts records in place; helper for deterministic List output.
func SortBy[T any](records []*T, less func(a, b *T) bool) {
	sort.Slice(records, func(i, j int) bool { return less(records[i], records[j]) })
}
