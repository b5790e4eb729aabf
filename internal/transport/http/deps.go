package http

import (
	"context"
	"time"

	"github.com/go-notification-dispatch/internal/application/delivery"
	"github.com/go-notification-dispatch/internal/application/notification"
	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/transport/http/middleware"
)

// DeviceRepository is the minimal interface the router requires from a device store.
type DeviceRepository interface {
	FindByUserAndAddress(ctx context.Context, userID int64, pushAddress string) (*domain.Device, error)
	Insert(ctx context.Context, d *domain.Device) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Device, error)
}

// Deps holds all infrastructure dependencies for the router. The stores are
// selected by STORAGE_DRIVER and the provider by PUSH_PROVIDER.
type Deps struct {
	NotificationRepo notification.Store
	TypeRepo         notification.TypeStore
	DeviceRepo       DeviceRepository
	PushProvider     delivery.Provider
	Verifier         middleware.Verifier
	// Invitations enables invitation visibility filtering when non-nil.
	Invitations notification.InvitationLookup
	Location    *time.Location
}
