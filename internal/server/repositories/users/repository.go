// Package users declares the credential-store contract the issuer depends
// on: look up identity and role data by login, create accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

type Repository interface {
	// Create stores a new user and returns it with the generated ID.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin looks up a user by login. Implementations return
	// common.ErrorNotFound when the login is unknown.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)

	// GetUserByID looks up a user by primary key. Implementations return
	// common.ErrorNotFound when the id is unknown.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
