package domain

// FailureCategory names the kind of a failed delivery.
type FailureCategory string

const (
	CategoryInvalidAddress FailureCategory = "InvalidAddress"
	CategoryAuthError      FailureCategory = "AuthError"
	CategoryUnknownError   FailureCategory = "UnknownError"
)

// InvalidAddressKind refines an InvalidAddress result.
type InvalidAddressKind string

const (
	KindMalformed      InvalidAddressKind = "malformed"
	KindSenderMismatch InvalidAddressKind = "sender-mismatch"
	KindUnregistered   InvalidAddressKind = "unregistered"
)

// DeliveryResult is the classified outcome of one provider send. The set of
// implementations is closed: Success, InvalidAddress, AuthError, UnknownError.
type DeliveryResult interface {
	// Purge reports whether the address should be removed from the registry.
	Purge() bool
	deliveryResult()
}

type Success struct {
	MessageID string
}

type InvalidAddress struct {
	Kind   InvalidAddressKind
	Detail string
}

type AuthError struct {
	Detail string
}

type UnknownError struct {
	Detail string
}

func (Success) Purge() bool        { return false }
func (InvalidAddress) Purge() bool { return true }
func (AuthError) Purge() bool      { return false }
func (UnknownError) Purge() bool   { return false }

func (Success) deliveryResult()        {}
func (InvalidAddress) deliveryResult() {}
func (AuthError) deliveryResult()      {}
func (UnknownError) deliveryResult()   {}

// DeliveryFailure is one failed address in a DeliveryReport.
type DeliveryFailure struct {
	PushAddress string          `json:"push_address"`
	Category    FailureCategory `json:"category"`
	Detail      string          `json:"detail"`
}

// DeliveryReport aggregates the outcome of one fanout.
type DeliveryReport struct {
	Sent             int               `json:"devices_notified"`
	InvalidAddresses []string          `json:"invalid_addresses"`
	Failures         []DeliveryFailure `json:"failures"`
}

// SendNotificationRequest asks for a notification to be stored and pushed.
// Title and Body are both required for a push to be attempted.
type SendNotificationRequest struct {
	Message            *string `json:"message"`
	UserID             int64   `json:"user_id" validate:"gt=0"`
	TypeID             int64   `json:"notification_type_id" validate:"gt=0"`
	CorrelatedEntityID int64   `json:"entity_id" validate:"gt=0"`
	StateID            int64   `json:"notification_state_id" validate:"gte=0"`
	PushAddress        *string `json:"push_address"`
	Title              *string `json:"title"`
	Body               *string `json:"body"`
}

// DeliveryOutcome is the result of a dispatch.
type DeliveryOutcome struct {
	NotificationID   int64             `json:"notification_id"`
	DevicesNotified  int               `json:"devices_notified"`
	InvalidAddresses []string          `json:"invalid_addresses,omitempty"`
	Failures         []DeliveryFailure `json:"failures,omitempty"`
}
