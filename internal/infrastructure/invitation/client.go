package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-notification-dispatch/internal/application/notification"
	"github.com/go-notification-dispatch/internal/domain"
	"github.com/go-notification-dispatch/internal/pkg/httpclient"
)

// Client reads invitations from the invitation service.
type Client struct {
	http *httpclient.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New(baseURL, timeout)}
}

// detailsResponse accepts both the bare invitation and the
// {"status":..., "data":{...}} envelope.
type detailsResponse struct {
	notification.InvitationDetails
	Data *notification.InvitationDetails `json:"data"`
}

func (c *Client) GetDetails(ctx context.Context, invitationID int64) (*notification.InvitationDetails, error) {
	var resp detailsResponse
	err := c.http.GetJSON(ctx, fmt.Sprintf("/invitations-service/%d", invitationID), &resp)
	var se *httpclient.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("invitation %d: %w", invitationID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation %d: %w", invitationID, err)
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	return &resp.InvitationDetails, nil
}
