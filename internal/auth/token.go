package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
	ErrMalformedClaims = errors.New("token claims are malformed")
)

// TokenVerifier is the part of the token service the auth gate depends on
type TokenVerifier interface {
	VerifyToken(tokenStr string) (int64, error)
}

// JWTService issues and verifies HMAC-SHA256 signed bearer tokens.
// Tokens are stateless: validity is solely signature + expiry against the
// server clock, there is no revocation list.
type JWTService struct {
	secret   []byte
	duration time.Duration
}

func NewJWTService(secret []byte, duration time.Duration) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret must not be empty")
	}

	return &JWTService{
		secret:   secret,
		duration: duration,
	}, nil
}

// CreateToken generates a signed token whose subject claim carries the
// decimal user id, expiring after the configured duration.
func (s *JWTService) CreateToken(userID int64) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates the signature and expiry and returns the subject
// user id. Expired, malformed, and badly signed tokens fail with
// ErrExpiredToken / ErrInvalidToken; a missing or non-integer subject fails
// with ErrMalformedClaims.
func (s *JWTService) VerifyToken(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, ErrMalformedClaims
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrMalformedClaims
	}

	return userID, nil
}
