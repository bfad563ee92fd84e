package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	BookingID string `json:"bid"`
	Email     string `json:"email"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

// NewBookingToken issues a short-lived token that grants read access to a
// single booking request.
func NewBookingToken(customBookingID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		BookingID: customBookingID,
		Email:     email,
		Scope:     "bookings:read",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"pentacabs-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
