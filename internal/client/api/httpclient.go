package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
)

// HTTPClient talks to the issuer's JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type renewalRequest struct {
	RenewalToken string `json:"renewal_token"`
}

// mapStatus converts an HTTP status into the package sentinels so that
// callers never inspect status codes themselves.
func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusConflict:
		return common.ErrorConflict
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

// do sends one JSON request and decodes the answer into out when out is
// non-nil. Transport failures map to ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, login, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", &credentialsRequest{Login: login, Password: password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/login", &credentialsRequest{Login: login, Password: password}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, renewalToken string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", &renewalRequest{RenewalToken: renewalToken}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout is best-effort on the server side: the issuer answers success
// even for unknown tokens, so only transport problems surface here.
func (c *HTTPClient) Logout(ctx context.Context, renewalToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", &renewalRequest{RenewalToken: renewalToken}, nil)
}

func (c *HTTPClient) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/validate", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+" "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &id, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}
