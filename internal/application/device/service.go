package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/pkg/id"
)

type Service interface {
	// Register returns the device for (userID, pushAddress), creating it on
	// first registration. An existing row is returned unchanged. Surrounding
	// whitespace is stripped from pushAddress before lookup and storage.
	Register(ctx context.Context, pushAddress string, userID int64) (*domain.Device, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Device, error)
	// Invalidate records that pushAddress can no longer receive pushes.
	// Rows are not touched; removing them is left to the caller.
	Invalidate(ctx context.Context, pushAddress string)
}

// deviceStore persists devices. Insert returns a domain.ErrConflict-wrapped
// error when the (user, address) pair already exists.
type deviceStore interface {
	FindByUserAndAddress(ctx context.Context, userID int64, pushAddress string) (*domain.Device, error)
	Insert(ctx context.Context, d *domain.Device) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Device, error)
}

type service struct {
	repo deviceStore
}

func NewService(repo deviceStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, pushAddress string, userID int64) (*domain.Device, error) {
	pushAddress = strings.TrimSpace(pushAddress)
	if pushAddress == "" {
		return nil, fmt.Errorf("push address is required: %w", domain.ErrValidation)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("user id must be positive: %w", domain.ErrValidation)
	}

	d, err := s.repo.FindByUserAndAddress(ctx, userID, pushAddress)
	if err == nil {
		slog.InfoContext(ctx, "device already registered", "device_id", d.DeviceID, "user_id", userID)
		return d, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	d = &domain.Device{
		DeviceID:    id.NewAt(now),
		UserID:      userID,
		PushAddress: pushAddress,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race with a concurrent registration of the same pair.
			return s.repo.FindByUserAndAddress(ctx, userID, pushAddress)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "device registered", "device_id", d.DeviceID, "user_id", userID)
	return d, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]domain.Device, error) {
	devices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	return devices, nil
}

func (s *service) Invalidate(ctx context.Context, pushAddress string) {
	slog.WarnContext(ctx, "push address flagged for purge", "push_address", pushAddress)
}
