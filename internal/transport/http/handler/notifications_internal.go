package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-notification-dispatch/internal/application/dispatch"
	"github.com/go-notification-dispatch/internal/application/notification"
	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/pkg/validate"
)

// InternalNotificationHandler serves the service-to-service notification API.
type InternalNotificationHandler struct {
	svc      notification.Service
	dispatch dispatch.Service
}

func NewInternalNotificationHandler(svc notification.Service, d dispatch.Service) *InternalNotificationHandler {
	return &InternalNotificationHandler{svc: svc, dispatch: d}
}

func (h *InternalNotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, err)
		return
	}
	out, err := h.dispatch.Send(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if out.DevicesNotified == 0 && len(out.Failures) == 0 {
		writeSuccess(w, http.StatusCreated, "notification saved, no device was notified", out)
		return
	}
	writeSuccess(w, http.StatusCreated, "notification sent", out)
}

func (h *InternalNotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.svc.ListAll(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", notifications)
}

func (h *InternalNotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", n)
}

func (h *InternalNotificationHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	var body struct {
		StateID int64 `json:"notification_state_id" validate:"gt=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		httpError(w, r, err)
		return
	}
	n, err := h.svc.UpdateState(r.Context(), id, body.StateID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "notification state updated", n)
}

// GetByEntity answers {"notification_id": null} when nothing matches.
func (h *InternalNotificationHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	h.getByEntity(w, r, chi.URLParam(r, "type"))
}

func (h *InternalNotificationHandler) GetByInvitation(w http.ResponseWriter, r *http.Request) {
	h.getByEntity(w, r, domain.TypeInvitation)
}

func (h *InternalNotificationHandler) DeleteByEntity(w http.ResponseWriter, r *http.Request) {
	h.deleteByEntity(w, r, chi.URLParam(r, "type"))
}

func (h *InternalNotificationHandler) DeleteByInvitation(w http.ResponseWriter, r *http.Request) {
	h.deleteByEntity(w, r, domain.TypeInvitation)
}

type entityRef struct {
	NotificationID *int64 `json:"notification_id"`
}

func (h *InternalNotificationHandler) getByEntity(w http.ResponseWriter, r *http.Request, typeName string) {
	entityID, ok := int64Param(r, "entity_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}
	n, err := h.svc.GetByCorrelatedEntity(r.Context(), typeName, entityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeSuccess(w, http.StatusOK, "no notification found", entityRef{})
			return
		}
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", entityRef{NotificationID: &n.NotificationID})
}

func (h *InternalNotificationHandler) deleteByEntity(w http.ResponseWriter, r *http.Request, typeName string) {
	entityID, ok := int64Param(r, "entity_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}
	deleted, err := h.svc.DeleteByCorrelatedEntity(r.Context(), typeName, entityID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	data := map[string]int{"deleted_count": deleted}
	if deleted == 0 {
		writeSuccess(w, http.StatusOK, "no notifications to delete", data)
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("%d notifications deleted", deleted), data)
}

func (h *InternalNotificationHandler) States(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", h.svc.ListStates(r.Context()))
}

func (h *InternalNotificationHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListTypes(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", types)
}
