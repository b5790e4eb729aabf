// Package memory holds process-local stores used by the memory storage
// driver and by tests. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-notification-dispatch/internal/domain"
)

type NotificationStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]domain.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{rows: map[int64]domain.Notification{}}
}

func (s *NotificationStore) Insert(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.NotificationID = s.nextID
	row := *n
	row.TypeName, row.StateName = "", ""
	s.rows[n.NotificationID] = row
	return nil
}

func (s *NotificationStore) Get(_ context.Context, notificationID int64) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.rows[notificationID]
	if !ok {
		return nil, fmt.Errorf("notification %d: %w", notificationID, domain.ErrNotFound)
	}
	return &n, nil
}

func (s *NotificationStore) ListByUser(_ context.Context, userID int64) ([]domain.Notification, error) {
	return s.filter(func(n domain.Notification) bool { return n.UserID == userID }), nil
}

func (s *NotificationStore) ListAll(context.Context) ([]domain.Notification, error) {
	return s.filter(func(domain.Notification) bool { return true }), nil
}

func (s *NotificationStore) ListByCorrelatedEntity(_ context.Context, typeID, entityID int64) ([]domain.Notification, error) {
	return s.filter(func(n domain.Notification) bool {
		return n.TypeID == typeID && n.CorrelatedEntityID == entityID
	}), nil
}

func (s *NotificationStore) UpdateState(_ context.Context, notificationID, stateID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[notificationID]
	if !ok {
		return fmt.Errorf("notification %d: %w", notificationID, domain.ErrNotFound)
	}
	n.StateID = stateID
	s.rows[notificationID] = n
	return nil
}

// DeleteMany removes the given ids under a single lock, so readers see either
// all or none of them.
func (s *NotificationStore) DeleteMany(_ context.Context, notificationIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range notificationIDs {
		if _, ok := s.rows[id]; ok {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

// filter returns matching rows ordered by id.
func (s *NotificationStore) filter(keep func(domain.Notification) bool) []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Notification{}
	for _, n := range s.rows {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NotificationID < out[j].NotificationID })
	return out
}
