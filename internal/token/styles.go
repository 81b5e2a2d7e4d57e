// Package token mints bearer credentials. The style is configurable; every
// style produces opaque strings except "jwt", which self-describes the login
// it was minted for.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	StyleUUID       = "uuid"
	StyleSimpleUUID = "simple-uuid"
	StyleRandom32   = "random-32"
	StyleRandom64   = "random-64"
	StyleRandom128  = "random-128"
	StyleTik        = "tik"
	StyleJWT        = "jwt"
)

// Generator mints one token candidate for a login attempt. Uniqueness is not
// guaranteed here; the engine checks candidates against the store and retries.
type Generator func(loginType, loginID, deviceType string) (string, error)

// ForStyle returns the generator for a configured style name. The jwt style
// requires a non-empty signing secret.
func ForStyle(style, jwtSecret string) (Generator, error) {
	switch style {
	case StyleUUID, "":
		return func(_, _, _ string) (string, error) {
			return uuid.NewString(), nil
		}, nil
	case StyleSimpleUUID:
		return func(_, _, _ string) (string, error) {
			return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
		}, nil
	case StyleRandom32:
		return randomGenerator(32), nil
	case StyleRandom64:
		return randomGenerator(64), nil
	case StyleRandom128:
		return randomGenerator(128), nil
	case StyleTik:
		return tikGenerator, nil
	case StyleJWT:
		if jwtSecret == "" {
			return nil, fmt.Errorf("token style %q requires a signing secret", StyleJWT)
		}
		return jwtGenerator(jwtSecret), nil
	default:
		return nil, fmt.Errorf("unknown token style %q", style)
	}
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns a crypto-random alphanumeric string of length n.
func RandomString(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		b.WriteByte(randomAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

func randomGenerator(n int) Generator {
	return func(_, _, _ string) (string, error) {
		return RandomString(n)
	}
}

// tikGenerator produces the compact "xx_xxxxxxxxxxxxxx_xxxxxxxxxxxxxxxx__" shape.
func tikGenerator(_, _, _ string) (string, error) {
	parts := make([]string, 3)
	for i, n := range []int{2, 14, 16} {
		s, err := RandomString(n)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return parts[0] + "_" + parts[1] + "_" + parts[2] + "__", nil
}

func jwtGenerator(secret string) Generator {
	key := []byte(secret)
	return func(loginType, loginID, deviceType string) (string, error) {
		now := time.Now()
		claims := jwt.MapClaims{
			"login_type": loginType,
			"login_id":   loginID,
			"device":     deviceType,
			"iat":        now.Unix(),
			"jti":        uuid.NewString(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		if err != nil {
			return "", fmt.Errorf("failed to sign jwt token: %w", err)
		}
		return signed, nil
	}
}

// ParseJWT verifies a jwt-style token and returns its claims. Only used by
// deployments that want to read the embedded login data without a store hit;
// the engine itself always resolves through the store.
func ParseJWT(tokenValue, secret string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenValue, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwt token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid jwt token")
	}
	return claims, nil
}
