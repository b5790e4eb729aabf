package domain

import "time"

// Device is a push address registered by a user. (UserID, PushAddress) is unique;
// the same address may be registered by several users.
type Device struct {
	DeviceID    string    `json:"id" dynamodbav:"device_id"`
	UserID      int64     `json:"user_id" dynamodbav:"user_id"`
	PushAddress string    `json:"push_address" dynamodbav:"push_address"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

type RegisterDeviceRequest struct {
	PushAddress string `json:"push_address" validate:"required"`
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
}

// Identity is the caller resolved from a session token.
type Identity struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}
