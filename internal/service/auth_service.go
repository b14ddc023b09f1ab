package service

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"docproc/internal/config"
	"docproc/internal/domain"
)

// Claims are the JWT claims accepted as bearer credentials.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// AuthService resolves bearer credentials to a principal.
type AuthService interface {
	Authenticate(token string) (*domain.Principal, error)
	IssueToken(subject string, ttl time.Duration) (string, error)
	Disabled() bool
}

type authService struct {
	cfg *config.AuthConfig
	now func() time.Time
}

// NewAuthService creates an AuthService from cfg.
func NewAuthService(cfg *config.AuthConfig) AuthService {
	return &authService{cfg: cfg, now: time.Now}
}

var (
	bypassPrincipal = domain.Principal{ID: "999", Username: "docproc-user", IsAdmin: true, Method: "disabled"}
	secretPrincipal = domain.Principal{ID: "100", Username: "authenticated-user", Method: "secret"}
)

func (s *authService) Disabled() bool { return s.cfg.Disabled }

// Authenticate accepts, in order: anything when auth is disabled, the shared
// secret, a secret matching the bcrypt hash, or an HS256 JWT signed with the
// shared secret.
func (s *authService) Authenticate(token string) (*domain.Principal, error) {
	if s.cfg.Disabled {
		p := bypassPrincipal
		return &p, nil
	}
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	if s.cfg.Secret != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Secret)) == 1 {
		p := secretPrincipal
		return &p, nil
	}
	if s.cfg.SecretHash != "" && bcrypt.CompareHashAndPassword([]byte(s.cfg.SecretHash), []byte(token)) == nil {
		p := secretPrincipal
		return &p, nil
	}
	if s.cfg.Secret != "" && strings.Count(token, ".") == 2 {
		claims, err := s.validateToken(token)
		if err != nil {
			return nil, err
		}
		return &domain.Principal{ID: claims.Subject, Username: claims.Username, IsAdmin: claims.IsAdmin, Method: "jwt"}, nil
	}
	return nil, domain.ErrUnauthorized
}

// IssueToken signs a token for subject with the shared secret.
func (s *authService) IssueToken(subject string, ttl time.Duration) (string, error) {
	if s.cfg.Secret == "" {
		return "", fmt.Errorf("issuing token: no shared secret configured")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: subject,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *authService) validateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.JWTIssuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing token: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
