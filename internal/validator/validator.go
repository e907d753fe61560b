// Package validator is the cross-service authorization client: downstream
// services use it to decide whether a presented access token is currently
// valid, either by verifying locally or by asking the issuer over HTTP.
//
// The remote strategy distinguishes a definitive rejection (the token is
// bad, answer 401) from a transient failure (the issuer was unreachable,
// answer 503) so that an infrastructure blip never logs a valid user out.
package validator

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
)

// Identity is the authorized caller attached to a validated request.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Role      string `json:"role"`
}

// Client authorizes bearer access tokens.
//
// Authorize returns the caller's identity, common.ErrorUnauthorized when
// the token is definitively invalid, or common.ErrTransientValidation when
// validity could not be established.
type Client interface {
	Authorize(ctx context.Context, accessToken string) (*Identity, error)
}

// LocalValidator verifies tokens in-process. It requires the verification
// material the issuer signs with, so it suits services deployed inside the
// same trust boundary.
type LocalValidator struct {
	codec *auth.Codec
}

func NewLocalValidator(codec *auth.Codec) *LocalValidator {
	return &LocalValidator{codec: codec}
}

// Authorize verifies signature and expiry locally. Every codec outcome
// collapses into common.ErrorUnauthorized; a local check has no transient
// failure mode.
func (v *LocalValidator) Authorize(ctx context.Context, accessToken string) (*Identity, error) {
	id, err := v.codec.Verify(accessToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	return &Identity{SubjectID: id.SubjectID, Role: id.Role}, nil
}
