package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-notification-dispatch/internal/application/device"
	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/pkg/validate"
)

// DeviceHandler handles device registration endpoints.
type DeviceHandler struct {
	svc device.Service
}

func NewDeviceHandler(svc device.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, err)
		return
	}
	d, err := h.svc.Register(r.Context(), req.PushAddress, req.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "device registered", d)
}

func (h *DeviceHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	devices, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", devices)
}
