package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec([]byte(secret), "HS256")
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func TestIssueAndValidate_Success(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "super-secret")

	tok, err := c.Issue(42, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, err := c.Validate(tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", userID)
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "secret")
	base := time.Now().Truncate(time.Second)
	c.now = func() time.Time { return base }

	tok, err := c.Issue(7, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// just before expiry
	c.now = func() time.Time { return base.Add(30*time.Minute - time.Second) }
	if _, err := c.Validate(tok); err != nil {
		t.Fatalf("expected token still valid before expiry, got %v", err)
	}

	// just after expiry
	c.now = func() time.Time { return base.Add(30*time.Minute + time.Second) }
	_, err = c.Validate(tok)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestCodec(t, "right-secret")
	verifier := newTestCodec(t, "wrong-secret")

	tok, err := issuer.Issue(1, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Validate(tok)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_WrongAlgorithm(t *testing.T) {
	t.Parallel()

	issuer, err := NewCodec([]byte("secret"), "HS384")
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	verifier := newTestCodec(t, "secret")

	tok, err := issuer.Issue(1, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Validate(tok)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_MalformedString(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "k")

	_, err := c.Validate("not.a.jwt")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestValidate_MissingUserID(t *testing.T) {
	t.Parallel()

	secret := "secret"
	c := newTestCodec(t, secret)

	// validly signed token that carries no user identity
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tok, err := raw.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = c.Validate(tok)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNewCodec_RejectsNonHMAC(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec([]byte("secret"), "RS256"); err == nil {
		t.Fatalf("expected error for non-HMAC algorithm, got nil")
	}
	if _, err := NewCodec([]byte("secret"), "bogus"); err == nil {
		t.Fatalf("expected error for unknown algorithm, got nil")
	}
}
