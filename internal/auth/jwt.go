package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScanClaims is the payload of a QR scan token. Subject is the session id.
type ScanClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueScanToken signs a token for sessionID that expires with the session.
func IssueScanToken(sessionID string, expiresAt time.Time, issuer, key string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id required")
	}
	claims := ScanClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// ParseScanToken validates a scan token and returns its claims.
func ParseScanToken(tokenStr, key, issuer string) (ScanClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &ScanClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return ScanClaims{}, err
	}
	claims, ok := parsed.Claims.(*ScanClaims)
	if !ok || !parsed.Valid {
		return ScanClaims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return ScanClaims{}, errors.New("issuer mismatch")
	}
	if claims.SessionID == "" || claims.SessionID != claims.Subject {
		return ScanClaims{}, errors.New("token subject mismatch")
	}
	return *claims, nil
}
