package lifecycle

import "errors"

var (
	// ErrAlreadyConfirmed is returned when a confirmation flow targets an
	// account whose email is already confirmed.
	ErrAlreadyConfirmed = errors.New("email already confirmed")

	// ErrNotConfirmed is returned when a reset flow targets an account whose
	// email has not been confirmed yet.
	ErrNotConfirmed = errors.New("email not confirmed")

	// ErrDeliveryFailed is returned when the notification dispatcher could
	// not deliver the message. Account state committed before the dispatch is
	// left intact.
	ErrDeliveryFailed = errors.New("failed to send email")
)
