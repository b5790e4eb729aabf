package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimezone is the zone notification dates are stamped in.
const DefaultTimezone = "America/Bogota"

// Notification is the stored notification record.
// TypeName and StateName are resolved on read and never persisted.
type Notification struct {
	NotificationID     int64     `json:"id" dynamodbav:"notification_id"`
	Message            *string   `json:"message" dynamodbav:"message"`
	CreatedAt          time.Time `json:"notification_date" dynamodbav:"created_at"`
	CorrelatedEntityID int64     `json:"entity_id" dynamodbav:"entity_id"`
	TypeID             int64     `json:"notification_type_id" dynamodbav:"notification_type_id"`
	StateID            int64     `json:"notification_state_id" dynamodbav:"notification_state_id"`
	UserID             int64     `json:"user_id" dynamodbav:"user_id"`
	TypeName           string    `json:"notification_type,omitempty" dynamodbav:"-"`
	StateName          string    `json:"notification_state,omitempty" dynamodbav:"-"`
}

// NewNotification is the input of the notification factory.
type NewNotification struct {
	Message            *string
	UserID             int64
	TypeID             int64
	CorrelatedEntityID int64
	StateID            int64
}

// CreateNotification validates in and returns an unsaved Notification stamped
// with now converted to loc. Nothing should be persisted when it fails.
func CreateNotification(in NewNotification, now time.Time, loc *time.Location) (*Notification, error) {
	if loc == nil {
		loc = time.UTC
	}
	n := &Notification{
		Message:            in.Message,
		CreatedAt:          now.In(loc),
		CorrelatedEntityID: in.CorrelatedEntityID,
		TypeID:             in.TypeID,
		StateID:            in.StateID,
		UserID:             in.UserID,
	}
	if n.StateID == 0 {
		n.StateID = int64(StatePending)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the record invariants. It does not look at NotificationID,
// which is zero until the store assigns it.
func (n *Notification) Validate() error {
	switch {
	case n.UserID <= 0:
		return fmt.Errorf("user id must be positive: %w", ErrValidation)
	case n.CorrelatedEntityID <= 0:
		return fmt.Errorf("entity id must be positive: %w", ErrValidation)
	case n.TypeID <= 0:
		return fmt.Errorf("notification type id must be positive: %w", ErrValidation)
	case n.StateID <= 0:
		return fmt.Errorf("notification state id must be positive: %w", ErrValidation)
	case n.Message != nil && strings.TrimSpace(*n.Message) == "":
		return fmt.Errorf("message cannot be empty if provided: %w", ErrValidation)
	}
	return nil
}

// NotificationType is a named notification category.
type NotificationType struct {
	TypeID int64  `json:"notification_type_id" dynamodbav:"notification_type_id"`
	Name   string `json:"name" dynamodbav:"name"`
}

// TypeInvitation is the category of invitation notifications.
const TypeInvitation = "Invitation"

// NotificationView is the response shape of a notification.
type NotificationView struct {
	NotificationID     int64     `json:"notification_id"`
	Message            *string   `json:"message"`
	NotificationDate   time.Time `json:"notification_date"`
	CorrelatedEntityID int64     `json:"entity_id"`
	NotificationType   *string   `json:"notification_type"`
	NotificationState  *string   `json:"notification_state"`
}

// View converts a resolved notification to its response shape. It fails with
// ErrSerialization when the stored record no longer satisfies its invariants.
func (n *Notification) View() (NotificationView, error) {
	if n.NotificationID <= 0 {
		return NotificationView{}, fmt.Errorf("notification without id: %w", ErrSerialization)
	}
	if err := n.Validate(); err != nil {
		return NotificationView{}, fmt.Errorf("notification %d: %w: %v", n.NotificationID, ErrSerialization, err)
	}
	if n.CreatedAt.IsZero() {
		return NotificationView{}, fmt.Errorf("notification %d has no date: %w", n.NotificationID, ErrSerialization)
	}
	return NotificationView{
		NotificationID:     n.NotificationID,
		Message:            n.Message,
		NotificationDate:   n.CreatedAt,
		CorrelatedEntityID: n.CorrelatedEntityID,
		NotificationType:   optional(n.TypeName),
		NotificationState:  optional(n.StateName),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
