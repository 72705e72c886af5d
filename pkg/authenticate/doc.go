// Package authenticate decides login outcomes and enforces brute-force
// lockout.
//
// The service checks, in order: account existence, email confirmation,
// lockout state, and password. Failed verifications increment a per-account
// counter through the credential store; once the counter passes the
// configured threshold the account is locked for the configured duration.
// The bootstrap administrator is exempt from failure counting.
//
// Outcomes are typed: ErrInvalidCredentials, ErrEmailNotConfirmed, and
// AccountLockedError carry everything the transport layer needs to build a
// response.
package authenticate
