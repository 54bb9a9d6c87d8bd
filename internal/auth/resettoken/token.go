// Package resettoken signs and verifies password-reset links.
package resettoken

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

const (
	issuer  = "juntas"
	purpose = "password_reset"
)

// Claims carries the user and a single-use jti recorded in password_resets.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *Claims) UsuarioID() (domain.UsuarioID, error) {
	v, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "enlace de restablecimiento inválido")
	}
	return domain.UsuarioID(v), nil
}

type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func New(signingKey string, ttl time.Duration) *Service {
	return &Service{signingKey: []byte(signingKey), ttl: ttl}
}

// Issue returns the signed token and its claims. now is the request time.
func (s *Service) Issue(usuarioID domain.UsuarioID, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usuarioID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature, issuer, purpose and expiry at now.
func (s *Service) Verify(token string, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "el enlace de restablecimiento expiró")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "enlace de restablecimiento inválido")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Purpose != purpose || claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "enlace de restablecimiento inválido")
	}
	return claims, nil
}
