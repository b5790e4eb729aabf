package delivery

import (
	"errors"

	"github.com/go-notification-dispatch/internal/domain"
)

// Classify maps a provider send outcome to a DeliveryResult. Only address
// faults produce InvalidAddress; sender-side and unknown failures leave the
// address in place.
func Classify(messageID string, err error) domain.DeliveryResult {
	switch {
	case err == nil:
		return domain.Success{MessageID: messageID}
	case errors.Is(err, domain.ErrSenderMismatch):
		return domain.InvalidAddress{Kind: domain.KindSenderMismatch, Detail: err.Error()}
	case errors.Is(err, domain.ErrUnregistered):
		return domain.InvalidAddress{Kind: domain.KindUnregistered, Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidAddress):
		return domain.InvalidAddress{Kind: domain.KindMalformed, Detail: err.Error()}
	case errors.Is(err, domain.ErrProviderAuth), errors.Is(err, domain.ErrProviderUnavailable):
		return domain.AuthError{Detail: err.Error()}
	default:
		return domain.UnknownError{Detail: err.Error()}
	}
}

// failure converts a non-success result into a report entry.
func failure(address string, r domain.DeliveryResult) (domain.DeliveryFailure, bool) {
	switch v := r.(type) {
	case domain.InvalidAddress:
		return domain.DeliveryFailure{PushAddress: address, Category: domain.CategoryInvalidAddress, Detail: v.Detail}, true
	case domain.AuthError:
		return domain.DeliveryFailure{PushAddress: address, Category: domain.CategoryAuthError, Detail: v.Detail}, true
	case domain.UnknownError:
		return domain.DeliveryFailure{PushAddress: address, Category: domain.CategoryUnknownError, Detail: v.Detail}, true
	}
	return domain.DeliveryFailure{}, false
}
