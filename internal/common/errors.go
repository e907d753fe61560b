// Package common defines shared constants and sentinel errors used across
// client and server layers of TokenKeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("already exists")

	// Token-codec errors. Expiry and signature failures are distinguishable
	// so callers can choose "reject" vs "attempt refresh".
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
	ErrTokenExpired   = errors.New("token expired")

	// Renewal-token lifecycle errors.
	ErrRenewalTokenExpired = errors.New("renewal token expired")
	ErrRenewalTokenRevoked = errors.New("renewal token revoked")

	// ErrReplayDetected signals redemption of an already-revoked renewal
	// token. Never crosses the public boundary; logged as a security event.
	ErrReplayDetected = errors.New("renewal token replay detected")

	// ErrTransientValidation means the validator could not reach the issuer
	// after exhausting retries. The presented token is not known to be bad.
	ErrTransientValidation = errors.New("transient validation failure")
)
