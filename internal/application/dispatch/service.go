package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-notification-dispatch/internal/domain"
)

type Service interface {
	// Send persists the notification and pushes it to the user's devices.
	// Push failures are reported in the outcome, never returned as errors.
	Send(ctx context.Context, req domain.SendNotificationRequest) (*domain.DeliveryOutcome, error)
}

type notificationCreator interface {
	Create(ctx context.Context, in domain.NewNotification) (*domain.Notification, error)
}

type deviceRegistry interface {
	ListForUser(ctx context.Context, userID int64) ([]domain.Device, error)
	Invalidate(ctx context.Context, pushAddress string)
}

type fanout interface {
	Send(ctx context.Context, addresses []string, title, body string) domain.DeliveryReport
}

type service struct {
	notifications notificationCreator
	devices       deviceRegistry
	engine        fanout
}

func NewService(notifications notificationCreator, devices deviceRegistry, engine fanout) Service {
	return &service{notifications: notifications, devices: devices, engine: engine}
}

func (s *service) Send(ctx context.Context, req domain.SendNotificationRequest) (*domain.DeliveryOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDispatch, err)
	}

	n, err := s.notifications.Create(ctx, domain.NewNotification{
		Message:            req.Message,
		UserID:             req.UserID,
		TypeID:             req.TypeID,
		CorrelatedEntityID: req.CorrelatedEntityID,
		StateID:            req.StateID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		slog.ErrorContext(ctx, "notification persist failed", "user_id", req.UserID, "err", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrDispatch, err)
	}
	outcome := &domain.DeliveryOutcome{NotificationID: n.NotificationID}

	devices, err := s.devices.ListForUser(ctx, req.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "device lookup failed", "notification_id", n.NotificationID, "user_id", req.UserID, "err", err)
		return outcome, fmt.Errorf("%w: list devices: %w", domain.ErrDispatch, err)
	}

	targets := make([]string, 0, len(devices)+1)
	for _, d := range devices {
		targets = append(targets, d.PushAddress)
	}
	if req.PushAddress != nil && strings.TrimSpace(*req.PushAddress) != "" {
		targets = append(targets, strings.TrimSpace(*req.PushAddress))
	}
	if len(targets) == 0 {
		slog.InfoContext(ctx, "no devices registered", "notification_id", n.NotificationID, "user_id", req.UserID)
		return outcome, nil
	}

	report := s.engine.Send(ctx, targets, deref(req.Title), deref(req.Body))
	for _, addr := range report.InvalidAddresses {
		s.devices.Invalidate(ctx, addr)
	}
	outcome.DevicesNotified = report.Sent
	outcome.InvalidAddresses = report.InvalidAddresses
	outcome.Failures = report.Failures

	slog.InfoContext(ctx, "notification dispatched",
		"notification_id", n.NotificationID,
		"targets", len(targets),
		"sent", report.Sent,
		"invalid", len(report.InvalidAddresses),
		"failed", len(report.Failures),
	)
	return outcome, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
