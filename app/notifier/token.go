package notifier

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("download token is invalid")
	ErrTokenExpired = errors.New("download token has expired")
)

type downloadClaims struct {
	FileURL string `json:"file"`
	jwt.RegisteredClaims
}

// MintDownloadToken signs a time-limited token granting access to one
// order's deliverable file.
func MintDownloadToken(secret string, ttl time.Duration, orderID, fileURL string) (string, error) {
	if secret == "" {
		return "", errors.New("download token secret is not configured")
	}

	now := time.Now().UTC()
	claims := downloadClaims{
		FileURL: fileURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   orderID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseDownloadToken validates a token and returns the order id and file
// URL it grants.
func ParseDownloadToken(secret, token string) (orderID, fileURL string, err error) {
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrTokenExpired
		}
		return "", "", ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" || claims.FileURL == "" {
		return "", "", ErrTokenInvalid
	}

	return claims.Subject, claims.FileURL, nil
}
