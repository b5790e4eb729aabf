package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/pkg/httpclient"
)

const verifyPath = "/users-service/session-token-verification"

// Client verifies session tokens against the user service.
type Client struct {
	http *httpclient.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New(baseURL, timeout)}
}

type verifyRequest struct {
	SessionToken string `json:"session_token"`
}

type verifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		User *domain.Identity `json:"user"`
	} `json:"data"`
}

// Verify returns the identity behind token. A token the user service rejects
// yields domain.ErrUnauthorized; transport failures are returned as is.
func (c *Client) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("empty session token: %w", domain.ErrUnauthorized)
	}

	var resp verifyResponse
	err := c.http.PostJSON(ctx, verifyPath, verifyRequest{SessionToken: token}, &resp)
	var se *httpclient.StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError:
		slog.WarnContext(ctx, "session token rejected", "status", se.StatusCode)
		return nil, fmt.Errorf("session token rejected: %w", domain.ErrUnauthorized)
	case err != nil:
		return nil, fmt.Errorf("verify session token: %w", err)
	}

	if resp.Status != "success" || resp.Data.User == nil || resp.Data.User.UserID <= 0 {
		slog.WarnContext(ctx, "unexpected session verification response", "status", resp.Status)
		return nil, fmt.Errorf("session token not verified: %w", domain.ErrUnauthorized)
	}
	return resp.Data.User, nil
}
