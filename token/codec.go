// Package token signs and verifies the compact claims that carry an
// authenticated identity between requests. Two Codec instances exist in the
// running service: one keyed for access tokens and one keyed for refresh
// tokens. The secrets are disjoint, so a token of one kind never verifies
// under the other kind's codec.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/blogkit/session-server/internal/apperrors"
)

// Claims is the signed payload of both token kinds.
type Claims struct {
	IdentityID string `json:"uid"`
	jwt.RegisteredClaims
}

// Codec issues and verifies tokens for a single kind.
type Codec struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	nowFunc  func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(secret string, lifetime time.Duration, issuer string, options ...CodecOption) *Codec {
	c := &Codec{
		secret:   []byte(secret),
		lifetime: lifetime,
		issuer:   issuer,
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Lifetime returns the configured token lifetime.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue signs a new token for identityID. Expiry is deterministic:
// issue time plus the configured lifetime.
func (c *Codec) Issue(identityID string) (string, error) {
	now := c.nowFunc()
	claims := Claims{
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "token.Codec.Issue sign")
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the claims. Failures are
// distinguishable through the apperrors sentinels: ErrTokenExpired for a
// valid-but-stale token, ErrTokenInvalid for a bad signature or malformed
// claims.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, c.verificationKey,
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		// An expired token with a bad signature is invalid, not expired.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrTokenInvalid, "%v", err)
	}
	if !parsed.Valid || claims.IdentityID == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

func (c *Codec) verificationKey(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

// DecodeUnsafe extracts claims without verifying the signature. The only
// legitimate caller is the revocation path, which needs the token's own
// expiry to place it on the ledger with a correct TTL. It must never be used
// to authorize a request. Returns nil if the token cannot be decoded.
func DecodeUnsafe(raw string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	return claims
}
