package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid api token")
	ErrExpiredToken = errors.New("expired api token")
)

// APITokenService issues and validates the Api-Key tokens that identify a
// ticket provider on every request.
type APITokenService interface {
	Generate(providerUUID uuid.UUID) (string, error)
	Validate(token string) (uuid.UUID, error)
}

type apiTokenService struct {
	secret []byte
	expiry time.Duration
}

func NewAPITokenService(secret string, expiry time.Duration) APITokenService {
	return &apiTokenService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (s *apiTokenService) Generate(providerUUID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": providerUUID.String(),
		"iat": now.Unix(),
	}
	if s.expiry > 0 {
		claims["exp"] = now.Add(s.expiry).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *apiTokenService) Validate(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	providerUUID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return providerUUID, nil
}
