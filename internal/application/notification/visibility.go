package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-notification-dispatch/internal/domain"
)

// InvitationDetails is the part of an invitation the visibility filter reads.
type InvitationDetails struct {
	InvitationID  int64 `json:"invitation_id"`
	InvitedUserID int64 `json:"invited_user_id"`
}

// InvitationLookup fetches invitation details from the invitation service.
type InvitationLookup interface {
	GetDetails(ctx context.Context, invitationID int64) (*InvitationDetails, error)
}

// VisibleTo keeps the invitation notifications whose invitation was addressed
// to userID. Views of other types pass through. Invitations the service does
// not know are dropped; any other lookup error is returned.
func VisibleTo(ctx context.Context, lookup InvitationLookup, userID int64, views []domain.NotificationView) ([]domain.NotificationView, error) {
	out := make([]domain.NotificationView, 0, len(views))
	for _, v := range views {
		if v.NotificationType == nil || *v.NotificationType != domain.TypeInvitation {
			out = append(out, v)
			continue
		}
		d, err := lookup.GetDetails(ctx, v.CorrelatedEntityID)
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "invitation not found, hiding notification", "notification_id", v.NotificationID, "invitation_id", v.CorrelatedEntityID)
			continue
		}
		if err != nil {
			return nil, err
		}
		if d.InvitedUserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}
