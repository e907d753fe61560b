package models

import "time"

// RenewalToken is the server-tracked record behind an opaque renewal-token
// string. LineageID is minted at login and copied to every rotation
// descendant, so a replayed token can take its whole chain down with it.
type RenewalToken struct {
	ID        string
	UserID    string
	Token     string
	LineageID string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Live reports whether the token can still be redeemed at the given time.
func (t *RenewalToken) Live(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
