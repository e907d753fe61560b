// Package api contains the HTTP client the session manager uses to talk
// to the issuer.
package api

import (
	"context"
	"time"
)

// TokenPair is the issuer's answer to a successful login or refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RenewalToken string    `json:"renewal_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Identity describes the subject behind a validated access token.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Role      string `json:"role"`
}

// Client is the issuer API surface the client application consumes.
//
// All methods honor context cancellation and map failures to the package
// sentinels: ErrUnauthorized for definitive rejections, ErrUnavailable
// for transport and server-side failures.
type Client interface {
	Register(ctx context.Context, login, password string) error
	Login(ctx context.Context, login, password string) (*TokenPair, error)
	Refresh(ctx context.Context, renewalToken string) (*TokenPair, error)
	Logout(ctx context.Context, renewalToken string) error
	Validate(ctx context.Context, accessToken string) (*Identity, error)
	Ping(ctx context.Context) error
}
