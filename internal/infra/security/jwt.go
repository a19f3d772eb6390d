package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
	"github.com/TobiLight/simple-2fa/internal/core/port"
)

const defaultAccessTokenTTL = 60 * time.Minute

// sessionTokenClaims augments registered claims with the account identity.
type sessionTokenClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// SessionTokenIssuer implements port.TokenIssuer using HS256-signed JWTs.
// Tokens are self-contained; no issuer-side state is kept.
type SessionTokenIssuer struct {
	secret []byte
	issuer string
}

// NewSessionTokenIssuer constructs an issuer signing with the server secret.
func NewSessionTokenIssuer(secret, issuer string) (*SessionTokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("session token secret is required")
	}
	return &SessionTokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// Issue signs a token carrying the supplied claims with an absolute expiry.
func (i *SessionTokenIssuer) Issue(claims domain.SessionClaims, ttl time.Duration) (string, time.Time, error) {
	if claims.AccountID == "" {
		return "", time.Time{}, fmt.Errorf("account id is required")
	}
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	tokenClaims := sessionTokenClaims{
		UserID: claims.AccountID,
		Email:  claims.Email,
		Name:   claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.AccountID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a token, returning its claims.
func (i *SessionTokenIssuer) Validate(tokenString string) (*domain.SessionClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &sessionTokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	if parsed == nil || !parsed.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, domain.ErrInvalidToken
	}

	result := &domain.SessionClaims{
		AccountID: claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}

var _ port.TokenIssuer = (*SessionTokenIssuer)(nil)
