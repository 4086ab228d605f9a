// Package token issues and verifies the signed access tokens used for
// authentication. Tokens are HS256 JWTs carrying the user id as subject;
// verification reports expiry distinctly so callers can answer with the
// right failure kind.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidKey   = errors.New("signing secret too short")
)

const minSecretLength = 32

// Claims is the verified content of an access token
type Claims struct {
	UserID   string
	IssuedAt time.Time
}

// Config holds token service configuration
type Config struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// Service signs and verifies access tokens
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewService creates a token service. The secret must be long enough to
// resist brute force; short secrets are a configuration error.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, ErrInvalidKey
	}
	expiration := cfg.Expiration
	if expiration == 0 {
		expiration = 24 * time.Hour
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: expiration,
	}, nil
}

// Sign creates a signed token for the given user
func (s *Service) Sign(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Expiration returns the configured token lifetime (cookie max-age)
func (s *Service) Expiration() time.Duration {
	return s.expiration
}

// Verify parses and validates a token, returning its claims
func (s *Service) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	result := &Claims{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	return result, nil
}
