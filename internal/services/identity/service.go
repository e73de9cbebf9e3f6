// Package identity resolves caller identities from signed bearer tokens and
// checks the administrator key.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/eloladder/internal/dependencies/clock"
	"github.com/mcoot/eloladder/internal/model"
)

// Errors
var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrNoSecret        = errors.New("token secret is not configured")
	ErrEmptySubject    = errors.New("player id must not be empty")
)

const issuer = "eloladder"

// Config holds configuration for the identity service
type Config struct {
	// Secret signs and verifies HS256 tokens
	Secret string
	// TokenTTL is the lifetime of issued tokens. Zero means no expiry.
	TokenTTL time.Duration
	// AdminKeyHash is a bcrypt hash of the admin key. Empty disables admin routes.
	AdminKeyHash string
}

// DefaultConfig returns default identity configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 30 * 24 * time.Hour,
	}
}

type claims struct {
	jwt.RegisteredClaims
}

// Service issues and verifies identity tokens
type Service struct {
	cfg   Config
	clock clock.Clock
}

// New creates a new identity service
func New(cfg Config, clock clock.Clock) *Service {
	return &Service{cfg: cfg, clock: clock}
}

// Issue signs a token whose subject is the player id
func (s *Service) Issue(id model.PlayerID) (string, error) {
	return IssueToken(s.cfg.Secret, id, s.cfg.TokenTTL, s.clock.Now())
}

// Verify returns the player id carried by a valid token
func (s *Service) Verify(token string) (model.PlayerID, error) {
	if s.cfg.Secret == "" {
		return "", ErrNoSecret
	}

	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}

	cl, ok := tok.Claims.(*claims)
	if !ok || cl.Subject == "" {
		return "", ErrInvalidToken
	}
	return model.PlayerID(cl.Subject), nil
}

// AdminEnabled reports whether an admin key hash is configured
func (s *Service) AdminEnabled() bool {
	return s.cfg.AdminKeyHash != ""
}

// VerifyAdminKey checks key against the configured bcrypt hash
func (s *Service) VerifyAdminKey(key string) error {
	if !s.AdminEnabled() || key == "" {
		return ErrInvalidAdminKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminKeyHash), []byte(key)); err != nil {
		return ErrInvalidAdminKey
	}
	return nil
}

// IssueToken signs a token without a Service, for offline issuing from the CLI
func IssueToken(secret string, id model.PlayerID, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if strings.TrimSpace(string(id)) == "" {
		return "", ErrEmptySubject
	}

	rc := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  string(id),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{RegisteredClaims: rc}).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// HashAdminKey returns the bcrypt hash to configure for key
func HashAdminKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidAdminKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
