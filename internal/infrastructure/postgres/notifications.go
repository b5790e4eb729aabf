package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationColumns = `notification_id, message, created_at, entity_id, notification_type_id, notification_state_id, user_id`

type NotificationStore struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewNotificationStore returns a store whose reads report created_at in loc.
func NewNotificationStore(pool *pgxpool.Pool, loc *time.Location) *NotificationStore {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationStore{pool: pool, loc: loc}
}

func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (message, created_at, entity_id, notification_type_id, notification_state_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING notification_id`,
		n.Message, n.CreatedAt, n.CorrelatedEntityID, n.TypeID, n.StateID, n.UserID,
	).Scan(&n.NotificationID)
	return mapError(err, "insert notification")
}

func (s *NotificationStore) Get(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE notification_id = $1`, notificationID)
	if err != nil {
		return nil, mapError(err, "get notification")
	}
	n, err := pgx.CollectExactlyOneRow(rows, s.scan)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("notification %d", notificationID))
	}
	return &n, nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.list(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY notification_id`, userID)
}

func (s *NotificationStore) ListAll(ctx context.Context) ([]domain.Notification, error) {
	return s.list(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY notification_id`)
}

func (s *NotificationStore) ListByCorrelatedEntity(ctx context.Context, typeID, entityID int64) ([]domain.Notification, error) {
	return s.list(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE entity_id = $1 AND notification_type_id = $2 ORDER BY notification_id`, entityID, typeID)
}

func (s *NotificationStore) UpdateState(ctx context.Context, notificationID, stateID int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET notification_state_id = $1 WHERE notification_id = $2`, stateID, notificationID)
	if err != nil {
		return mapError(err, "update notification state")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %d: %w", notificationID, domain.ErrNotFound)
	}
	return nil
}

// DeleteMany removes all ids in one transaction.
func (s *NotificationStore) DeleteMany(ctx context.Context, notificationIDs []int64) (int, error) {
	var deleted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM notifications WHERE notification_id = ANY($1)`, notificationIDs)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, mapError(err, "delete notifications")
	}
	return int(deleted), nil
}

func (s *NotificationStore) list(ctx context.Context, sql string, args ...any) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "list notifications")
	}
	out, err := pgx.CollectRows(rows, s.scan)
	if err != nil {
		return nil, mapError(err, "scan notifications")
	}
	if out == nil {
		out = []domain.Notification{}
	}
	return out, nil
}

func (s *NotificationStore) scan(row pgx.CollectableRow) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.NotificationID, &n.Message, &n.CreatedAt, &n.CorrelatedEntityID, &n.TypeID, &n.StateID, &n.UserID)
	n.CreatedAt = n.CreatedAt.In(s.loc)
	return n, err
}
