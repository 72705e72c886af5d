// Package lifecycle orchestrates the credential lifecycle: registration,
// email confirmation and resend, forgotten-username recovery, and password
// reset.
//
// The service composes the credential store, the single-use token codec, and
// the notification dispatcher. Outcomes are typed rejections
// (account.ErrNotFound, account.ErrEmailTaken, ErrAlreadyConfirmed,
// ErrNotConfirmed, securetoken.ErrInvalidToken, ErrDeliveryFailed) that the
// transport layer maps to responses.
//
// Dispatch failures are delivery signals, not faults: an account created
// before a failed confirmation send stays created, and the resend flow
// recovers from that state.
package lifecycle
