package fcm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-notification-dispatch/internal/domain"
	"google.golang.org/api/option"
)

// Client sends push messages through Firebase Cloud Messaging.
type Client struct {
	messaging *messaging.Client
}

// New builds a messaging client from a service account file. Without a
// usable credentials file it returns a domain.ErrProviderUnavailable error
// so the caller can fall back to a provider that reports every send as such.
func New(ctx context.Context, credentialsFile, projectID string) (*Client, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("FCM_CREDENTIALS_FILE not set: %w", domain.ErrProviderUnavailable)
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("fcm credentials: %v: %w", err, domain.ErrProviderUnavailable)
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %v: %w", err, domain.ErrProviderUnavailable)
	}
	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %v: %w", err, domain.ErrProviderUnavailable)
	}
	slog.InfoContext(ctx, "firebase cloud messaging initialized", "project_id", projectID)
	return &Client{messaging: mc}, nil
}

func (c *Client) Send(ctx context.Context, address, title, body string) (string, error) {
	id, err := c.messaging.Send(ctx, &messaging.Message{
		Token: address,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// mapError translates FCM errors into the domain provider sentinels. The
// messaging-specific checks run first because they overlap with the generic
// status codes (a sender mismatch is also PERMISSION_DENIED).
func mapError(err error) error {
	switch {
	case messaging.IsSenderIDMismatch(err):
		return fmt.Errorf("%v: %w", err, domain.ErrSenderMismatch)
	case messaging.IsUnregistered(err):
		return fmt.Errorf("%v: %w", err, domain.ErrUnregistered)
	case messaging.IsThirdPartyAuthError(err):
		return fmt.Errorf("%v: %w", err, domain.ErrProviderAuth)
	case errorutils.IsInvalidArgument(err):
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidAddress)
	case errorutils.IsUnauthenticated(err), errorutils.IsPermissionDenied(err):
		return fmt.Errorf("%v: %w", err, domain.ErrProviderAuth)
	}
	return err
}
