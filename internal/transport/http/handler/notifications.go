package handler

import (
	"net/http"

	"github.com/go-notification-dispatch/internal/application/notification"
	"github.com/go-notification-dispatch/internal/transport/http/middleware"
)

// NotificationHandler serves the caller's own notifications.
type NotificationHandler struct {
	svc         notification.Service
	invitations notification.InvitationLookup
}

// NewNotificationHandler returns the public handler. When invitations is
// non-nil, invitation notifications are only shown to the invited user.
func NewNotificationHandler(svc notification.Service, invitations notification.InvitationLookup) *NotificationHandler {
	return &NotificationHandler{svc: svc, invitations: invitations}
}

func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	views, err := h.svc.ListByUser(r.Context(), id.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if h.invitations != nil {
		if views, err = notification.VisibleTo(r.Context(), h.invitations, id.UserID, views); err != nil {
			httpError(w, r, err)
			return
		}
	}
	if len(views) == 0 {
		writeSuccess(w, http.StatusOK, "no notifications found", views)
		return
	}
	writeSuccess(w, http.StatusOK, "notifications retrieved", views)
}
