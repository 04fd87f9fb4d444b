// Package auth issues and verifies the stateless bearer tokens handed out on
// register and login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the username in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for subject that expires after validityDuration.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken validates tokenString and returns its subject.
// Expired tokens yield common.ErrTokenExpired, everything else that fails
// validation yields common.ErrInvalidToken.
func GetSubjectFromToken(tokenString string, secretKey []byte, now time.Time) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// TokenService binds the signing key and token lifetime.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenService(secretKey string, ttl time.Duration) *TokenService {
	return &TokenService{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

// Issue returns a signed token whose subject is username.
func (s *TokenService) Issue(username string) (string, error) {
	return GenerateToken(username, s.secretKey, s.ttl, s.now())
}

// Verify returns the username a valid token was issued for.
func (s *TokenService) Verify(token string) (string, error) {
	return GetSubjectFromToken(token, s.secretKey, s.now())
}
