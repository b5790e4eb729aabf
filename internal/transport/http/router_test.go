package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-notification-dispatch/internal/application/notification"
	"github.com/go-notification-dispatch/internal/config"
	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]int64

func (s stubVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	uid, ok := s[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Identity{UserID: uid}, nil
}

type stubProvider struct {
	mu      sync.Mutex
	sent    []string
	invalid map[string]bool
}

func (p *stubProvider) Send(_ context.Context, address, _, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, address)
	if p.invalid[address] {
		return "", domain.ErrInvalidAddress
	}
	return "m-" + address, nil
}

type stubInvitations map[int64]int64

func (s stubInvitations) GetDetails(_ context.Context, id int64) (*notification.InvitationDetails, error) {
	invited, ok := s[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &notification.InvitationDetails{InvitationID: id, InvitedUserID: invited}, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	provider *stubProvider
}

func newTestServer(t *testing.T, apiKey string, invitations notification.InvitationLookup) *testServer {
	t.Helper()
	provider := &stubProvider{invalid: map[string]bool{"bad-token": true}}
	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		InternalAPIKey: apiKey,
		FanoutWorkers:  4,
		PushTimeout:    time.Second,
	}
	deps := &Deps{
		NotificationRepo: memory.NewNotificationStore(),
		TypeRepo:         memory.NewTypeStore(domain.NotificationType{TypeID: 1, Name: domain.TypeInvitation}, domain.NotificationType{TypeID: 2, Name: "Reminder"}),
		DeviceRepo:       memory.NewDeviceStore(),
		PushProvider:     provider,
		Verifier:         stubVerifier{"session-7": 7},
		Invitations:      invitations,
		Location:         time.UTC,
	}
	return &testServer{t: t, handler: NewRouter(cfg, deps), provider: provider}
}

func (s *testServer) do(method, target string, body any, headers map[string]string) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	var env envelope
	require.NoError(s.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

func TestRouter_SendAndRead(t *testing.T) {
	s := newTestServer(t, "", nil)

	for _, tok := range []string{"good-token", "bad-token"} {
		code, _ := s.do(http.MethodPost, "/v1/internal/devices", map[string]any{"push_address": tok, "user_id": 7}, nil)
		require.Equal(t, http.StatusOK, code)
	}

	code, env := s.do(http.MethodPost, "/v1/internal/send-notification", map[string]any{
		"message":              "You were invited",
		"user_id":              7,
		"notification_type_id": 1,
		"entity_id":            99,
		"title":                "Invitation",
		"body":                 "Open the app",
	}, nil)
	require.Equal(t, http.StatusCreated, code)
	var out domain.DeliveryOutcome
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 1, out.DevicesNotified)
	assert.Equal(t, []string{"bad-token"}, out.InvalidAddresses)

	code, env = s.do(http.MethodGet, "/v1/notifications", nil, map[string]string{"Authorization": "Bearer session-7"})
	require.Equal(t, http.StatusOK, code)
	var views []domain.NotificationView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Invitation", *views[0].NotificationType)
	assert.Equal(t, "Pending", *views[0].NotificationState)

	code, env = s.do(http.MethodGet, "/v1/internal/notifications/by-invitation/99", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"notification_id":%d}`, out.NotificationID), string(env.Data))

	code, _ = s.do(http.MethodPatch, fmt.Sprintf("/v1/internal/notifications/%d/state", out.NotificationID),
		map[string]any{"notification_state_id": int(domain.StateAccepted)}, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodDelete, "/v1/internal/notifications/by-invitation/99", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"deleted_count":1}`, string(env.Data))

	code, env = s.do(http.MethodGet, "/v1/internal/notifications/by-invitation/99", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"notification_id":null}`, string(env.Data))
}

func TestRouter_ErrorMapping(t *testing.T) {
	s := newTestServer(t, "", nil)

	code, env := s.do(http.MethodPost, "/v1/internal/send-notification", map[string]any{"user_id": 7}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", env.Status)

	code, _ = s.do(http.MethodPatch, "/v1/internal/notifications/404/state", map[string]any{"notification_state_id": 2}, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPatch, "/v1/internal/notifications/1/state", map[string]any{"notification_state_id": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/v1/notifications", nil, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(http.MethodDelete, "/v1/internal/notifications/by-entity/Unknown/3", nil, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"deleted_count":0}`, string(env.Data))
}

func TestRouter_NoNotificationsIsEmptyList(t *testing.T) {
	s := newTestServer(t, "", nil)

	code, env := s.do(http.MethodGet, "/v1/notifications?session_token=session-7", nil, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRouter_InternalRoutesNeedKey(t *testing.T) {
	s := newTestServer(t, "k", nil)

	code, _ := s.do(http.MethodGet, "/v1/internal/notification-types", nil, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodGet, "/v1/internal/notification-types", nil, map[string]string{"X-API-Key": "k"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"notification_type_id":1,"name":"Invitation"},{"notification_type_id":2,"name":"Reminder"}]`, string(env.Data))
}

func TestRouter_InvitationVisibility(t *testing.T) {
	s := newTestServer(t, "", stubInvitations{10: 7, 11: 8})

	for _, n := range []map[string]any{
		{"user_id": 7, "notification_type_id": 1, "entity_id": 10},
		{"user_id": 7, "notification_type_id": 1, "entity_id": 11},
		{"user_id": 7, "notification_type_id": 1, "entity_id": 12},
		{"user_id": 7, "notification_type_id": 2, "entity_id": 13},
	} {
		code, _ := s.do(http.MethodPost, "/v1/internal/send-notification", n, nil)
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := s.do(http.MethodGet, "/v1/notifications", nil, map[string]string{"Authorization": "Bearer session-7"})
	require.Equal(t, http.StatusOK, code)
	var views []domain.NotificationView
	require.NoError(t, json.Unmarshal(env.Data, &views))

	var entities []int64
	for _, v := range views {
		entities = append(entities, v.CorrelatedEntityID)
	}
	assert.ElementsMatch(t, []int64{10, 13}, entities)
}

func TestRouter_HealthCheck(t *testing.T) {
	s := newTestServer(t, "", nil)

	code, env := s.do(http.MethodGet, "/v1/health-check/ping", nil, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", env.Message)
}
