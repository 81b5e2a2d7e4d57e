package token

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mint(t *testing.T, style string) string {
	t.Helper()
	gen, err := ForStyle(style, "")
	require.NoError(t, err)
	tok, err := gen("user", "1001", "web")
	require.NoError(t, err)
	return tok
}

func TestUUIDStyle(t *testing.T) {
	tok := mint(t, StyleUUID)
	_, err := uuid.Parse(tok)
	assert.NoError(t, err)
}

func TestEmptyStyleDefaultsToUUID(t *testing.T) {
	tok := mint(t, "")
	_, err := uuid.Parse(tok)
	assert.NoError(t, err)
}

func TestSimpleUUIDStyle(t *testing.T) {
	tok := mint(t, StyleSimpleUUID)
	assert.Len(t, tok, 32)
	assert.NotContains(t, tok, "-")
}

func TestRandomStyles(t *testing.T) {
	alnum := regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	for style, want := range map[string]int{
		StyleRandom32:  32,
		StyleRandom64:  64,
		StyleRandom128: 128,
	} {
		tok := mint(t, style)
		assert.Len(t, tok, want, style)
		assert.Regexp(t, alnum, tok, style)
	}
}

func TestTikStyle(t *testing.T) {
	tok := mint(t, StyleTik)
	require.True(t, strings.HasSuffix(tok, "__"), "tik tokens end with a double underscore")

	parts := strings.Split(strings.TrimSuffix(tok, "__"), "_")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 2)
	assert.Len(t, parts[1], 14)
	assert.Len(t, parts[2], 16)
}

func TestJWTStyleRoundTrip(t *testing.T) {
	gen, err := ForStyle(StyleJWT, "test-secret")
	require.NoError(t, err)

	tok, err := gen("user", "1001", "web")
	require.NoError(t, err)

	claims, err := ParseJWT(tok, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user", claims["login_type"])
	assert.Equal(t, "1001", claims["login_id"])
	assert.Equal(t, "web", claims["device"])
	assert.NotEmpty(t, claims["jti"])
}

func TestJWTStyleRejectsWrongSecret(t *testing.T) {
	gen, err := ForStyle(StyleJWT, "right")
	require.NoError(t, err)

	tok, err := gen("user", "1001", "web")
	require.NoError(t, err)

	_, err = ParseJWT(tok, "wrong")
	assert.Error(t, err)
}

func TestJWTStyleRequiresSecret(t *testing.T) {
	_, err := ForStyle(StyleJWT, "")
	assert.Error(t, err)
}

func TestUnknownStyle(t *testing.T) {
	_, err := ForStyle("bogus", "")
	assert.Error(t, err)
}

func TestMintedTokensDiffer(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		tok := mint(t, StyleUUID)
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestRandomStringAlphabet(t *testing.T) {
	s, err := RandomString(200)
	require.NoError(t, err)
	assert.Len(t, s, 200)
	for _, r := range s {
		assert.Contains(t, randomAlphabet, string(r))
	}
}
