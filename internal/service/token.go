package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"complaint-service/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies HS256 bearer tokens carrying user_id and role.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, expirationHours int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    time.Hour * time.Duration(expirationHours),
		now:    time.Now,
	}
}

func (s *TokenService) Generate(user *model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     now.Add(s.ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates the signature and expiry and returns the subject.
func (s *TokenService) Parse(tokenString string) (uuid.UUID, model.Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", ErrInvalidToken
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}
	role, _ := claims["role"].(string)

	return userID, model.Role(role), nil
}
