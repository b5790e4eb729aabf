package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-notification-dispatch/internal/domain"
)

type TypeStore struct {
	mu    sync.RWMutex
	types map[int64]domain.NotificationType
}

// NewTypeStore returns a store holding types. With no arguments it is seeded
// with the Invitation type under id 1.
func NewTypeStore(types ...domain.NotificationType) *TypeStore {
	if len(types) == 0 {
		types = []domain.NotificationType{{TypeID: 1, Name: domain.TypeInvitation}}
	}
	s := &TypeStore{types: make(map[int64]domain.NotificationType, len(types))}
	for _, t := range types {
		s.types[t.TypeID] = t
	}
	return s
}

func (s *TypeStore) Get(_ context.Context, typeID int64) (*domain.NotificationType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[typeID]
	if !ok {
		return nil, fmt.Errorf("notification type %d: %w", typeID, domain.ErrNotFound)
	}
	return &t, nil
}

func (s *TypeStore) GetByName(_ context.Context, name string) (*domain.NotificationType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.types {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("notification type %q: %w", name, domain.ErrNotFound)
}

func (s *TypeStore) List(context.Context) ([]domain.NotificationType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NotificationType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out, nil
}
