package common

import "errors"

// Error taxonomy shared by services and handlers. Handlers map these to
// status codes with errors.Is; anything else is an internal error.
var (
	ErrInvalidInput   = errors.New("invalid request")
	ErrMessageTooLong = errors.New("message too long")
	ErrRateLimited    = errors.New("rate limited")
	ErrAlreadySent    = errors.New("already sent")
	ErrDeliveryFailed = errors.New("delivery failed")
)
