package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer mints and validates the HS256 session tokens handed to
// clients. The jti claim doubles as the session id in the session store.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue returns a signed token and its session id for the given user.
func (t *TokenIssuer) Issue(userID uuid.UUID, email string) (token, sessionID string, err error) {
	sessionID = uuid.NewString()

	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"jti":   sessionID,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(t.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", err
	}

	return signed, sessionID, nil
}

// SessionID validates a token string and extracts the session id.
func (t *TokenIssuer) SessionID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", ErrInvalidToken
	}

	return jti, nil
}
