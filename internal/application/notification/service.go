package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-notification-dispatch/internal/domain"
)

type Service interface {
	Create(ctx context.Context, in domain.NewNotification) (*domain.Notification, error)
	Get(ctx context.Context, notificationID int64) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.NotificationView, error)
	ListAll(ctx context.Context) ([]domain.Notification, error)
	GetByCorrelatedEntity(ctx context.Context, typeName string, entityID int64) (*domain.Notification, error)
	UpdateState(ctx context.Context, notificationID, stateID int64) (*domain.Notification, error)
	DeleteByCorrelatedEntity(ctx context.Context, typeName string, entityID int64) (int, error)
	ListStates(ctx context.Context) []domain.StateInfo
	ListTypes(ctx context.Context) ([]domain.NotificationType, error)
}

// Store is the persistence capability set the lifecycle needs. Insert assigns
// NotificationID. Get returns a domain.ErrNotFound-wrapped error when missing.
type Store interface {
	Insert(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID int64) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
	ListAll(ctx context.Context) ([]domain.Notification, error)
	ListByCorrelatedEntity(ctx context.Context, typeID, entityID int64) ([]domain.Notification, error)
	UpdateState(ctx context.Context, notificationID, stateID int64) error
	DeleteMany(ctx context.Context, notificationIDs []int64) (int, error)
}

// TypeStore resolves notification types. GetByName and Get return a
// domain.ErrNotFound-wrapped error for unknown types.
type TypeStore interface {
	Get(ctx context.Context, typeID int64) (*domain.NotificationType, error)
	GetByName(ctx context.Context, name string) (*domain.NotificationType, error)
	List(ctx context.Context) ([]domain.NotificationType, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Location *time.Location
	Policy   domain.TransitionPolicy
	Now      func() time.Time
}

type service struct {
	repo   Store
	types  TypeStore
	loc    *time.Location
	policy domain.TransitionPolicy
	now    func() time.Time
}

func NewService(repo Store, types TypeStore, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Policy == nil {
		opts.Policy = domain.AllowAll{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{repo: repo, types: types, loc: opts.Location, policy: opts.Policy, now: opts.Now}
}

func (s *service) Create(ctx context.Context, in domain.NewNotification) (*domain.Notification, error) {
	n, err := domain.CreateNotification(in, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	slog.InfoContext(ctx, "notification created", "notification_id", n.NotificationID, "user_id", n.UserID)
	if err := s.resolveNames(ctx, n, nil); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) Get(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if err := s.resolveNames(ctx, n, nil); err != nil {
		return nil, err
	}
	return n, nil
}

// ListByUser returns every notification of the user as response views. One
// record that cannot be converted fails the whole batch.
func (s *service) ListByUser(ctx context.Context, userID int64) ([]domain.NotificationView, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "notifications fetched", "user_id", userID, "count", len(notifications))

	cache := map[int64]string{}
	views := make([]domain.NotificationView, 0, len(notifications))
	for i := range notifications {
		if err := s.resolveNames(ctx, &notifications[i], cache); err != nil {
			return nil, err
		}
		v, err := notifications[i].View()
		if err != nil {
			slog.ErrorContext(ctx, "notification serialization failed", "user_id", userID, "err", err)
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *service) ListAll(ctx context.Context) ([]domain.Notification, error) {
	notifications, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

// GetByCorrelatedEntity returns the lowest-id notification of the named type
// for the entity. An unconfigured type is reported as not found.
func (s *service) GetByCorrelatedEntity(ctx context.Context, typeName string, entityID int64) (*domain.Notification, error) {
	t, err := s.types.GetByName(ctx, typeName)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.ListByCorrelatedEntity(ctx, t.TypeID, entityID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("notification for %s %d: %w", typeName, entityID, domain.ErrNotFound)
	}
	n := &matches[0]
	for i := range matches[1:] {
		if matches[i+1].NotificationID < n.NotificationID {
			n = &matches[i+1]
		}
	}
	n.TypeName = t.Name
	n.StateName = domain.NotificationState(n.StateID).String()
	return n, nil
}

func (s *service) UpdateState(ctx context.Context, notificationID, stateID int64) (*domain.Notification, error) {
	if stateID <= 0 {
		return nil, fmt.Errorf("notification state id must be positive: %w", domain.ErrValidation)
	}
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	from, to := domain.NotificationState(n.StateID), domain.NotificationState(stateID)
	if !s.policy.Allow(from, to) {
		return nil, fmt.Errorf("transition %d -> %d not allowed: %w", from, to, domain.ErrValidation)
	}
	if err := s.repo.UpdateState(ctx, notificationID, stateID); err != nil {
		return nil, fmt.Errorf("update notification state: %w", err)
	}
	n.StateID = stateID
	slog.InfoContext(ctx, "notification state updated", "notification_id", notificationID, "from", int64(from), "to", stateID)
	if err := s.resolveNames(ctx, n, nil); err != nil {
		return nil, err
	}
	return n, nil
}

// DeleteByCorrelatedEntity removes every notification of the named type for
// the entity in one batch. Nothing to delete is a success with count 0.
func (s *service) DeleteByCorrelatedEntity(ctx context.Context, typeName string, entityID int64) (int, error) {
	t, err := s.types.GetByName(ctx, typeName)
	if errors.Is(err, domain.ErrNotFound) {
		slog.InfoContext(ctx, "notification type not configured", "type", typeName)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	matches, err := s.repo.ListByCorrelatedEntity(ctx, t.TypeID, entityID)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(matches))
	for i, n := range matches {
		ids[i] = n.NotificationID
	}
	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	slog.InfoContext(ctx, "notifications deleted", "type", typeName, "entity_id", entityID, "count", deleted)
	return deleted, nil
}

func (s *service) ListStates(context.Context) []domain.StateInfo {
	return domain.States()
}

func (s *service) ListTypes(ctx context.Context) ([]domain.NotificationType, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []domain.NotificationType{}
	}
	return types, nil
}

// resolveNames fills TypeName and StateName. A type that no longer exists
// leaves TypeName empty. cache may be nil.
func (s *service) resolveNames(ctx context.Context, n *domain.Notification, cache map[int64]string) error {
	n.StateName = domain.NotificationState(n.StateID).String()
	if name, ok := cache[n.TypeID]; ok {
		n.TypeName = name
		return nil
	}
	t, err := s.types.Get(ctx, n.TypeID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		n.TypeName = ""
	case err != nil:
		return fmt.Errorf("resolve notification type %d: %w", n.TypeID, err)
	default:
		n.TypeName = t.Name
	}
	if cache != nil {
		cache[n.TypeID] = n.TypeName
	}
	return nil
}
