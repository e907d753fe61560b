package api

import "errors"

var (
	// ErrUnauthorized means the issuer definitively rejected the
	// credentials or token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable means the issuer could not be reached or answered
	// with a server-side failure; the request may succeed later.
	ErrUnavailable = errors.New("server unavailable")
)
