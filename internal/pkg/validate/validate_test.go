package validate

import (
	"errors"
	"testing"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(domain.RegisterDeviceRequest{PushAddress: "tok", UserID: 1}))

	err := Struct(domain.RegisterDeviceRequest{UserID: -1})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "field 'push_address' failed 'required'")
	assert.Contains(t, err.Error(), "field 'user_id'")
}

func TestStruct_SendRequest(t *testing.T) {
	err := Struct(domain.SendNotificationRequest{UserID: 1, TypeID: 1})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "entity_id")
}
