package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseDelay  = 2 * time.Second
	defaultMaxRetries = 3
)

// RemoteValidator asks the issuer's validation endpoint. Transport
// failures and non-success responses other than 401 are retried with
// exponential backoff (2s, 4s, 8s); a 401 is definitive and returned
// immediately without retrying.
type RemoteValidator struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger

	// baseDelay and maxRetries are fixed by policy; tests shrink the delay.
	baseDelay  time.Duration
	maxRetries uint64
}

func NewRemoteValidator(baseURL string, client *http.Client, logger logging.Logger) *RemoteValidator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteValidator{
		baseURL:    baseURL,
		client:     client,
		logger:     logger.With("module", "validator"),
		baseDelay:  defaultBaseDelay,
		maxRetries: defaultMaxRetries,
	}
}

// Authorize calls the issuer, retrying transient failures. The context
// bounds the whole exchange including backoff sleeps, so a slow issuer
// cannot exhaust the caller's own request budget.
func (v *RemoteValidator) Authorize(ctx context.Context, accessToken string) (*Identity, error) {
	var id Identity

	backoff := retry.WithMaxRetries(v.maxRetries, retry.NewExponential(v.baseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/auth/validate", nil)
		if err != nil {
			return err
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+" "+accessToken)

		resp, err := v.client.Do(req)
		if err != nil {
			v.logger.Warn(ctx, "validation call failed", "error", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
				return retry.RetryableError(fmt.Errorf("decoding validation response: %w", err))
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			// Definitive: the issuer looked at the token and said no.
			return common.ErrorUnauthorized
		default:
			v.logger.Warn(ctx, "validation call rejected", "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
	})

	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, common.ErrorUnauthorized
		}
		v.logger.Error(ctx, "validation retries exhausted", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrTransientValidation, err)
	}

	return &id, nil
}
