package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-notification-dispatch/internal/domain"
)

type deviceKey struct {
	userID  int64
	address string
}

type DeviceStore struct {
	mu   sync.RWMutex
	rows map[deviceKey]domain.Device
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{rows: map[deviceKey]domain.Device{}}
}

func (s *DeviceStore) FindByUserAndAddress(_ context.Context, userID int64, pushAddress string) (*domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.rows[deviceKey{userID, pushAddress}]
	if !ok {
		return nil, fmt.Errorf("device for user %d: %w", userID, domain.ErrNotFound)
	}
	return &d, nil
}

func (s *DeviceStore) Insert(_ context.Context, d *domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := deviceKey{d.UserID, d.PushAddress}
	if _, ok := s.rows[k]; ok {
		return fmt.Errorf("device for user %d: %w", d.UserID, domain.ErrConflict)
	}
	s.rows[k] = *d
	return nil
}

func (s *DeviceStore) ListByUser(_ context.Context, userID int64) ([]domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Device{}
	for k, d := range s.rows {
		if k.userID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
