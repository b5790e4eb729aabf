package postgres

import (
	"context"
	"fmt"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TypeStore struct {
	pool *pgxpool.Pool
}

func NewTypeStore(pool *pgxpool.Pool) *TypeStore {
	return &TypeStore{pool: pool}
}

func (s *TypeStore) Get(ctx context.Context, typeID int64) (*domain.NotificationType, error) {
	return s.one(ctx, fmt.Sprintf("notification type %d", typeID),
		`SELECT notification_type_id, name FROM notification_types WHERE notification_type_id = $1`, typeID)
}

func (s *TypeStore) GetByName(ctx context.Context, name string) (*domain.NotificationType, error) {
	return s.one(ctx, fmt.Sprintf("notification type %q", name),
		`SELECT notification_type_id, name FROM notification_types WHERE name = $1`, name)
}

func (s *TypeStore) List(ctx context.Context) ([]domain.NotificationType, error) {
	rows, err := s.pool.Query(ctx, `SELECT notification_type_id, name FROM notification_types ORDER BY notification_type_id`)
	if err != nil {
		return nil, mapError(err, "list notification types")
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.NotificationType])
	if err != nil {
		return nil, mapError(err, "scan notification types")
	}
	return out, nil
}

func (s *TypeStore) one(ctx context.Context, what, sql string, arg any) (*domain.NotificationType, error) {
	var t domain.NotificationType
	if err := s.pool.QueryRow(ctx, sql, arg).Scan(&t.TypeID, &t.Name); err != nil {
		return nil, mapError(err, what)
	}
	return &t, nil
}
