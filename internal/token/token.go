package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned when the token's expiry instant has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature is returned when the signature does not verify
	// against the configured secret and algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrMalformed is returned for tokens that cannot be parsed or that
	// carry no user identity.
	ErrMalformed = errors.New("malformed token")
)

// Claims includes the registered claims plus the user identity
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// Codec issues and validates signed bearer tokens. Validation is pure
// computation; no I/O is involved.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewCodec creates a codec for the given shared secret and HMAC algorithm
// (HS256, HS384 or HS512).
func NewCodec(secret []byte, algorithm string) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm: %s", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %s is not an HMAC method", algorithm)
	}
	return &Codec{secret: secret, method: method, now: time.Now}, nil
}

// Issue creates a signed token for the user, expiring after ttl.
func (c *Codec) Issue(userID int64, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate verifies the signature, then the expiry, then extracts the user
// id. All failures are unauthorized to the outside; the returned sentinel
// tells them apart for diagnostics.
func (c *Codec) Validate(tokenString string) (int64, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}), jwt.WithTimeFunc(c.now))

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return 0, ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrExpired
	default:
		return 0, ErrMalformed
	}

	if claims.UserID == 0 {
		return 0, ErrMalformed
	}
	return claims.UserID, nil
}
