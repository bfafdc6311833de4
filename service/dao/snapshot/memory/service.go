package memory

import (
	"context"

	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/dao/criteria"
	"github.com/viant/tickos/service/dao/store"
	"github.com/viant/tickos/service/snapshot"
)

// Service implements an in-memory, thread-safe snapshot store.
type Service struct {
	*store.MemoryStore[string, snapshot.Snapshot]
}

var _ dao.Service[string, snapshot.Snapshot] = (*Service)(nil)

// List returns snapshots ordered by ID.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*snapshot.Snapshot, error) {
	ret, err := s.MemoryStore.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	store.SortBy(ret, func(a, b *snapshot.Snapshot) bool { return a.ID < b.ID })
	return ret, nil
}

// New creates an empty store.
func New() *Service {
	memoryStore := store.NewMemoryStore[string, snapshot.Snapshot](
		func(s *snapshot.Snapshot) string { return s.ID },
		(*snapshot.Snapshot).Clone,
	).WithFilter(func(s *snapshot.Snapshot, parameters []*dao.Parameter) bool {
		return criteria.FilterByID(s.ID, parameters)
	})
	return &Service{MemoryStore: memoryStore}
}
