package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRefresh is returned when a refresh token is invalid or expired.
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// GenerateRefreshToken creates a secure random token plus its persistable hash.
func GenerateRefreshToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashRefreshToken(raw)
	return raw, hashed, nil
}

// HashRefreshToken produces a base64 SHA-256 hash.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey builds the unique key holding refresh state.
func RefreshRedisKey(hash string) string {
	return fmt.Sprintf("refresh:%s:%s", Audience, hash)
}
