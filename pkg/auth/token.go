package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// IssueToken signs a token for the given principal. The subject claim
// carries the user ID; role travels as a private claim.
func IssueToken(secret string, p Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth: empty signing secret")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(p.ID),
		"role": p.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// Authenticate verifies a bearer token and returns the principal it names.
func Authenticate(secret, token string) (Principal, error) {
	if secret == "" || token == "" {
		return Principal{}, ErrInvalidToken
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, ErrInvalidToken
	}
	id, err := strconv.Atoi(sub)
	if err != nil || id <= 0 {
		return Principal{}, ErrInvalidToken
	}
	role := RoleUser
	if r, ok := claims["role"].(string); ok && r != "" {
		role = r
	}
	if role != RoleUser && role != RoleAdmin {
		return Principal{}, ErrInvalidToken
	}
	return Principal{ID: id, Role: role}, nil
}
