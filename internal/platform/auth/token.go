// Package auth verifies bearer tokens minted by the external identity provider.
// The engine trusts the subject as the reporter/owner id and issues nothing in production
package auth

import (
	"errors"
	"strings"
	"time"

	perr "callerid/internal/platform/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the subject (user id) and the device the token was issued to
type Claims struct {
	DeviceID string `json:"did,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens for one issuer
type Verifier struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewVerifier builds a Verifier. An empty issuer skips the issuer check
func NewVerifier(secret, issuer string) *Verifier {
	if strings.TrimSpace(secret) == "" {
		panic("auth: empty signing secret")
	}
	return &Verifier{key: []byte(secret), issuer: issuer, now: time.Now}
}

// Parse validates raw and returns the subject and device id.
// It matches httpkit.TokenFunc
func (v *Verifier) Parse(raw string) (userID string, deviceID string, err error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", perr.Unauthorizedf("token has expired")
		}
		return "", "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", "", perr.Unauthorizedf("invalid token claims")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", "", perr.Unauthorizedf("token has no subject")
	}
	return claims.Subject, claims.DeviceID, nil
}

// Issue signs a token for userID. Used by the CLI against local servers and by tests
func (v *Verifier) Issue(userID, deviceID string, ttl time.Duration) (string, error) {
	now := v.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(v.key)
}
