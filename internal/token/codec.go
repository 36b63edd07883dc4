// Package token is the single place that understands access-token encodings.
//
// Two encodings exist behind one contract: the development token
// "mock-token-<userID>-<epochMillis>" and the production JWT. Callers above
// this package never branch on the format; they only ask IsExpired and TTL.
package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MockPrefix marks the development encoding.
	MockPrefix = "mock-token-"

	// MockTTL is the fixed lifetime of a mock token.
	MockTTL = 3600 * time.Second

	// mock tokens are treated as expired 30s early; JWTs 5 minutes early,
	// because refresh latency against a remote provider is real.
	mockExpiryBuffer = 30 * time.Second
	jwtExpiryBuffer  = 5 * time.Minute
)

// NewMockToken encodes the development token for a subject at an instant.
func NewMockToken(userID string, issuedAt time.Time) string {
	return fmt.Sprintf("%s%s-%d", MockPrefix, userID, issuedAt.UnixMilli())
}

// MockSubject recovers the subject of a mock token. Subjects may themselves
// contain hyphens, so everything between the prefix and the trailing
// timestamp segment belongs to the subject.
func MockSubject(raw string) (string, bool) {
	if !strings.HasPrefix(raw, MockPrefix) {
		return "", false
	}
	parts := strings.Split(raw, "-")
	if len(parts) < 4 {
		return "", false
	}
	subject := strings.Join(parts[2:len(parts)-1], "-")
	if subject == "" {
		return "", false
	}
	return subject, true
}

// IsExpired reports whether a token of either encoding should be considered
// expired at the given instant. Tokens that fail to decode structurally are
// expired, never an error: callers only ever need a boolean.
func IsExpired(raw string, now time.Time) bool {
	effective, ok := effectiveExpiry(raw)
	if !ok {
		return true
	}
	return !now.Before(effective)
}

// TTL returns the whole seconds remaining before IsExpired flips, never
// negative.
func TTL(raw string, now time.Time) int64 {
	effective, ok := effectiveExpiry(raw)
	if !ok {
		return 0
	}
	remaining := effective.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// effectiveExpiry resolves the instant a token stops being usable, with the
// encoding's safety buffer already applied.
func effectiveExpiry(raw string) (time.Time, bool) {
	if strings.HasPrefix(raw, MockPrefix) {
		parts := strings.Split(raw, "-")
		if len(parts) < 4 {
			return time.Time{}, false
		}
		millis, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		issued := time.UnixMilli(millis)
		return issued.Add(MockTTL - mockExpiryBuffer), true
	}

	// JWT path: only the exp claim matters here, so the payload is read
	// without signature verification. Signature checks happen server-side
	// in auth.JWTManager.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.Add(-jwtExpiryBuffer), true
}
