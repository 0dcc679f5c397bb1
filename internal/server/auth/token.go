package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// FallbackTTL is used when an Issuer is built without a default TTL.
const FallbackTTL = 15 * time.Minute

// MinSecretBytes is the shortest HMAC secret accepted by NewIssuer.
const MinSecretBytes = 32

// ErrEmptySubject is returned when Issue is called without a subject.
var ErrEmptySubject = errors.New("token subject is empty")

func init() {
	// Millisecond exp/iat so sub-second TTLs are honoured.
	jwt.TimePrecision = time.Millisecond
}

// Claims is the claim set carried by an access token: sub, exp and iat.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens with a process-wide secret.
// The secret is copied on construction and never exposed.
type Issuer struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer builds an Issuer. defaultTTL <= 0 selects FallbackTTL.
func NewIssuer(secret []byte, defaultTTL time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretBytes)
	}
	if defaultTTL <= 0 {
		defaultTTL = FallbackTTL
	}

	i := &Issuer{
		secret:     append([]byte(nil), secret...),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	)
	return i, nil
}

// DefaultTTL is the lifetime applied by Issue when no TTL is given.
func (i *Issuer) DefaultTTL() time.Duration {
	return i.defaultTTL
}

// Issue mints a token for subject that expires after ttl, or after the
// default TTL when ttl <= 0.
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl <= 0 {
		ttl = i.defaultTTL
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// subject. Errors always match one of common.ErrMalformedToken,
// common.ErrInvalidSignature or common.ErrTokenExpired.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := i.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return "", classify(err)
	}
	if !token.Valid {
		return "", common.ErrInvalidSignature
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", common.ErrMalformedToken)
	}

	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
}
