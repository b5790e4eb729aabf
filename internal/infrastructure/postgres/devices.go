package postgres

import (
	"context"
	"fmt"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceStore struct {
	pool *pgxpool.Pool
}

func NewDeviceStore(pool *pgxpool.Pool) *DeviceStore {
	return &DeviceStore{pool: pool}
}

// Insert never overwrites: an existing (user_id, push_address) row is
// reported as domain.ErrConflict.
func (s *DeviceStore) Insert(ctx context.Context, d *domain.Device) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO devices (device_id, user_id, push_address, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, push_address) DO NOTHING`,
		d.DeviceID, d.UserID, d.PushAddress, d.CreatedAt,
	)
	if err != nil {
		return mapError(err, "insert device")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("device for user %d: %w", d.UserID, domain.ErrConflict)
	}
	return nil
}

func (s *DeviceStore) FindByUserAndAddress(ctx context.Context, userID int64, pushAddress string) (*domain.Device, error) {
	var d domain.Device
	err := s.pool.QueryRow(ctx, `
		SELECT device_id, user_id, push_address, created_at FROM devices
		WHERE user_id = $1 AND push_address = $2`, userID, pushAddress,
	).Scan(&d.DeviceID, &d.UserID, &d.PushAddress, &d.CreatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("device for user %d", userID))
	}
	return &d, nil
}

func (s *DeviceStore) ListByUser(ctx context.Context, userID int64) ([]domain.Device, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT device_id, user_id, push_address, created_at FROM devices
		WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, mapError(err, "list devices")
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Device])
	if err != nil {
		return nil, mapError(err, "scan devices")
	}
	return out, nil
}
