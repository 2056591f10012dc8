package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid license token")

// LicenseClaims is the payload of an offline license token.
type LicenseClaims struct {
	Product   string `json:"product"`
	ExpiresOn string `json:"expires_on"`
	jwt.RegisteredClaims
}

// GenerateLicenseToken signs an HS256 token for subject that stays valid
// until the end of the expiresOn day in loc.
func GenerateLicenseToken(secret, subject, product, expiresOn string, now time.Time, loc *time.Location) (string, error) {
	day, err := time.ParseInLocation("2006-01-02", expiresOn, loc)
	if err != nil {
		return "", fmt.Errorf("parse expiry: %w", err)
	}

	claims := LicenseClaims{
		Product:   product,
		ExpiresOn: expiresOn,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(day.AddDate(0, 0, 1)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseLicenseToken validates signature and expiry and returns the claims.
func ParseLicenseToken(secret, tokenString string) (*LicenseClaims, error) {
	claims := &LicenseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
