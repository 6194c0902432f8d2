// Package token issues and validates the HS256 access tokens used by the
// API. Claims carry the actor's identity and rol; everything else about the
// usuario is looked up fresh on each request that needs it.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"expedientes/internal/usuario/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// Claims represents the JWT claims for access tokens.
type Claims struct {
	UserID string `json:"id"`
	Correo string `json:"correo"`
	Rol    string `json:"rol"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Generate mints a signed token for the usuario.
func (s *Service) Generate(u *models.Usuario, now time.Time) (string, error) {
	claims := Claims{
		UserID: u.ID.String(),
		Correo: u.Correo,
		Rol:    string(u.Rol),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate parses and verifies a token string.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateActor validates a token and resolves it straight to the policy
// identity. This is the entry point the auth middleware uses.
func (s *Service) ValidateActor(tokenString string) (domain.Actor, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	return claims.Actor()
}

// Actor converts validated claims into the policy identity. Claims from a
// token are still external input, so both fields go through Parse.
func (c *Claims) Actor() (domain.Actor, error) {
	userID, err := domain.ParseUserID(c.UserID)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	rol, err := domain.ParseRol(c.Rol)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return domain.Actor{ID: userID, Rol: rol}, nil
}
