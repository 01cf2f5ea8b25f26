package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const jwtIssuer = "querydesk-api"

type JWTService interface {
	GenerateToken(userID string) (*string, error)
	ValidateToken(token string) (*string, error)
}

type jwtService struct {
	secretKey           string
	accessTokenDuration time.Duration
}

func NewJWTService(secretKey string, accessTokenDuration time.Duration) JWTService {
	return &jwtService{
		secretKey:           secretKey,
		accessTokenDuration: accessTokenDuration,
	}
}

func (s *jwtService) GenerateToken(userID string) (*string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"iss":     jwtIssuer,
		"exp":     time.Now().Add(s.accessTokenDuration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return nil, err
	}
	return &tokenString, nil
}

// ValidateToken returns the principal carried by a valid, unexpired token.
func (s *jwtService) ValidateToken(tokenString string) (*string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("token has no user_id claim")
	}
	return &userID, nil
}
