// Package renewaltokens declares the server-side repository contract for
// managing renewal tokens in persistent storage.
package renewaltokens

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// Repository defines operations for issuing, redeeming, and revoking
// renewal tokens.
type Repository interface {
	// Create stores a new renewal-token record.
	Create(ctx context.Context, token *models.RenewalToken) error

	// Find looks up a renewal token by its opaque token string, revoked or
	// not. Implementations return common.ErrorNotFound when it is absent.
	Find(ctx context.Context, token string) (*models.RenewalToken, error)

	// Redeem atomically revokes the token iff it is currently live
	// (non-revoked, unexpired) and returns the revoked record. When the
	// token is absent, already revoked, or expired, it returns
	// common.ErrorNotFound without distinguishing why; callers that need
	// the reason follow up with Find. Of N concurrent redemptions of the
	// same token exactly one succeeds.
	Redeem(ctx context.Context, token string) (*models.RenewalToken, error)

	// Revoke marks the token revoked. Revoking an unknown or already
	// revoked token is not an error.
	Revoke(ctx context.Context, token string) error

	// RevokeLineage revokes every live token in the given rotation lineage.
	RevokeLineage(ctx context.Context, lineageID string) error
}
