package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		want     any
		purge    bool
		wantKind domain.InvalidAddressKind
	}{
		{"sender mismatch", fmt.Errorf("fcm: %w", domain.ErrSenderMismatch), domain.InvalidAddress{}, true, domain.KindSenderMismatch},
		{"malformed", fmt.Errorf("fcm: %w", domain.ErrInvalidAddress), domain.InvalidAddress{}, true, domain.KindMalformed},
		{"unregistered", fmt.Errorf("fcm: %w", domain.ErrUnregistered), domain.InvalidAddress{}, true, domain.KindUnregistered},
		{"auth", fmt.Errorf("fcm: %w", domain.ErrProviderAuth), domain.AuthError{}, false, ""},
		{"unavailable", domain.ErrProviderUnavailable, domain.AuthError{}, false, ""},
		{"other", errors.New("boom"), domain.UnknownError{}, false, ""},
		{"timeout", context.DeadlineExceeded, domain.UnknownError{}, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify("", tc.err)
			assert.IsType(t, tc.want, got)
			assert.Equal(t, tc.purge, got.Purge())
			if ia, ok := got.(domain.InvalidAddress); ok {
				assert.Equal(t, tc.wantKind, ia.Kind)
				assert.Contains(t, ia.Detail, tc.err.Error())
			}
		})
	}
}

func TestClassify_Success(t *testing.T) {
	got := Classify("msg-1", nil)
	assert.Equal(t, domain.Success{MessageID: "msg-1"}, got)
	assert.False(t, got.Purge())
}

func TestFailure_SuccessIsNotAFailure(t *testing.T) {
	_, failed := failure("a", domain.Success{MessageID: "m"})
	assert.False(t, failed)

	f, failed := failure("a", domain.AuthError{Detail: "bad key"})
	assert.True(t, failed)
	assert.Equal(t, domain.DeliveryFailure{PushAddress: "a", Category: domain.CategoryAuthError, Detail: "bad key"}, f)
}
