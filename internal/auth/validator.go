// Package auth validates bearer session tokens issued by the identity service.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
)

var (
	ErrMissingSigningKey = errors.New("session validator: signing key required")
	ErrMissingIssuer     = errors.New("session validator: issuer required")
	ErrMissingToken      = errors.New("session validator: token required")
	ErrInvalidToken      = errors.New("session validator: invalid token")
	ErrExpiredToken      = errors.New("session validator: token expired")
	ErrMissingSubject    = errors.New("session validator: subject required")
)

// SessionClaims mirrors the JWT payload emitted by the identity service.
type SessionClaims struct {
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	Plan      string `json:"plan"`
	jwt.RegisteredClaims
}

// SessionValidator validates HS256 session JWTs.
type SessionValidator struct {
	signingSecret []byte
	issuer        string
	clock         clock.Clock
}

// NewSessionValidator constructs a validator from application config.
func NewSessionValidator(cfg config.Config, clk clock.Clock) (*SessionValidator, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSigningKey
	}
	issuer := strings.TrimSpace(cfg.AuthJWTIssuer)
	if issuer == "" {
		return nil, ErrMissingIssuer
	}
	return &SessionValidator{
		signingSecret: []byte(secret),
		issuer:        issuer,
		clock:         clk,
	}, nil
}

// ValidateToken validates the supplied JWT string and returns the parsed claims.
func (v *SessionValidator) ValidateToken(tokenString string) (SessionClaims, error) {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return SessionClaims{}, ErrMissingToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidToken, t.Method.Alg())
			}
			return v.signingSecret, nil
		},
		jwt.WithTimeFunc(v.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrExpiredToken
		}
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	if claims.Issuer != v.issuer {
		return SessionClaims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" && strings.TrimSpace(claims.Subject) == "" {
		return SessionClaims{}, ErrMissingSubject
	}
	return *claims, nil
}

func (v *SessionValidator) now() time.Time {
	if v.clock == nil {
		return time.Now().UTC()
	}
	return v.clock.Now()
}

// Subject returns the stable user id for the claims.
func (c SessionClaims) StableUserID() string {
	if id := strings.TrimSpace(c.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Subject)
}
