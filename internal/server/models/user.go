// Package models defines the server-side persistence entities.
package models

// User is the identity record the issuer authenticates against. The auth
// core only needs credentials, a role, and an active flag; profile data
// lives elsewhere.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	Role         string
	Active       bool
}
