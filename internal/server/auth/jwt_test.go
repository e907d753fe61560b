package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
)

func newTestCodec(leeway time.Duration) *Codec {
	return NewCodec([]byte("super-secret"), "tokenkeeper", "services", leeway)
}

func TestMintAndVerify_Success(t *testing.T) {
	c := newTestCodec(2 * time.Minute)

	tok, expiresAt, err := c.Mint("user-123", "admin", time.Hour)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("expiry too close: %v", expiresAt)
	}

	id, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.SubjectID != "user-123" {
		t.Fatalf("subject mismatch: got %q", id.SubjectID)
	}
	if id.Role != "admin" {
		t.Fatalf("role mismatch: got %q", id.Role)
	}
	if !id.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: got %v want %v", id.ExpiresAt, expiresAt)
	}
}

func TestVerify_Expired(t *testing.T) {
	c := newTestCodec(0)

	tok, _, err := c.Mint("u1", "user", -1*time.Second)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = c.Verify(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestVerify_ExpiredWithinLeeway(t *testing.T) {
	c := newTestCodec(2 * time.Minute)

	// Expired a minute ago, still inside the leeway window.
	tok, _, err := c.Mint("u1", "user", -1*time.Minute)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	if _, err := c.Verify(tok); err != nil {
		t.Fatalf("token inside leeway should verify, got %v", err)
	}
}

func TestVerify_ExpiredBeyondLeeway(t *testing.T) {
	c := newTestCodec(2 * time.Minute)

	tok, _, err := c.Mint("u1", "user", -3*time.Minute)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = c.Verify(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	c := newTestCodec(0)
	other := NewCodec([]byte("other-secret"), "tokenkeeper", "services", 0)

	tok, _, err := c.Mint("u2", "user", time.Hour)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = other.Verify(tok)
	if !errors.Is(err, common.ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	c := newTestCodec(0)
	other := NewCodec([]byte("super-secret"), "tokenkeeper", "somebody-else", 0)

	tok, _, err := c.Mint("u2", "user", time.Hour)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = other.Verify(tok)
	if !errors.Is(err, common.ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	c := newTestCodec(0)

	_, err := c.Verify("not.a.jwt")
	if !errors.Is(err, common.ErrMalformedToken) {
		t.Fatalf("want ErrMalformedToken, got %v", err)
	}
}
