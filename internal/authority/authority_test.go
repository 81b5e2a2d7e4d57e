package authority

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/storage"
	"github.com/orris-inc/tokengate/internal/storage/memory"
)

func newTestAuthority(t *testing.T, opts ...Option) *Authority {
	t.Helper()
	cache := memory.New(-1, logger.Nop())
	t.Cleanup(func() { _ = cache.Destroy() })
	a, err := New("user", storage.Wrap(cache), opts...)
	require.NoError(t, err)
	return a
}

func TestNewRequiresLoginType(t *testing.T) {
	cache := memory.New(-1, logger.Nop())
	defer func() { _ = cache.Destroy() }()

	_, err := New("", storage.Wrap(cache))
	assert.Error(t, err)
}

func TestLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	loginID, err := a.LoginID(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "10001", loginID)

	ok, err := a.IsLogin(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, a.CheckLogin(ctx, tok))
}

func TestLoginIDRejectsEmptyToken(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	_, err := a.LoginID(ctx, "")
	require.True(t, apperrors.IsNotLoggedIn(err))
	assert.Equal(t, apperrors.CodeNotToken, apperrors.NotLoggedInReason(err))
}

func TestLoginIDUnknownToken(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	_, err := a.LoginID(ctx, "no-such-token")
	require.True(t, apperrors.IsNotLoggedIn(err))
	assert.Equal(t, apperrors.CodeInvalidToken, apperrors.NotLoggedInReason(err))

	ok, err := a.IsLogin(ctx, "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginRejectsReservedLoginID(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	for _, id := range []string{"", "-1", "-5", "-9"} {
		_, err := a.Login(ctx, id)
		assert.True(t, apperrors.IsValidationError(err), "login id %q must be rejected", id)
	}

	// Negative ids outside the sentinel space are ordinary accounts.
	_, err := a.Login(ctx, "-10")
	assert.NoError(t, err)
}

func TestTokenTimeout(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	tok, err := a.LoginWithOptions(ctx, "10001", LoginOptions{Timeout: 120})
	require.NoError(t, err)

	ttl, err := a.TokenTimeout(ctx, tok)
	require.NoError(t, err)
	assert.InDelta(t, 120, ttl, 2)

	ttl, err = a.TokenTimeout(ctx, "absent")
	require.NoError(t, err)
	assert.Equal(t, storage.NotValueExpire, ttl)
}

func TestTokenStateReporting(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)

	state, exists, err := a.TokenState(ctx, tok)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, StateActive, state)

	require.NoError(t, a.KickoutByToken(ctx, tok))

	state, exists, err = a.TokenState(ctx, tok)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, StateKicked, state)

	_, exists, err = a.TokenState(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPrefixWrapUnwrap(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t, WithConfig(&Config{
		TokenName:     "tokengate",
		Timeout:       3600,
		ActiveTimeout: -1,
		Concurrent:    true,
		Share:         true,
		MaxLoginCount: 12,
		MaxTryTimes:   12,
		TokenStyle:    "uuid",
		TokenPrefix:   "Bearer",
	}))

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)

	presented := a.WrapPrefix(tok)
	assert.Equal(t, "Bearer "+tok, presented)

	loginID, err := a.ResolveToken(ctx, presented)
	require.NoError(t, err)
	assert.Equal(t, "10001", loginID)

	// The bare value is not acceptable once a prefix is configured.
	_, err = a.ResolveToken(ctx, tok)
	require.True(t, apperrors.IsNotLoggedIn(err))
	assert.Equal(t, apperrors.CodeNoPrefix, apperrors.NotLoggedInReason(err))

	// Wrong prefix word fails the same way.
	_, err = a.ResolveToken(ctx, "Token "+tok)
	assert.Equal(t, apperrors.CodeNoPrefix, apperrors.NotLoggedInReason(err))
}

func TestPrefixPassThroughWhenUnconfigured(t *testing.T) {
	a := newTestAuthority(t)

	assert.Equal(t, "abc", a.WrapPrefix("abc"))
	got, ok := a.UnwrapPrefix("abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", got)
}

func TestSearchTokensAndSessions(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	for _, id := range []string{"alice", "bob", "carol"} {
		_, err := a.Login(ctx, id)
		require.NoError(t, err)
	}

	keys, err := a.SearchTokenValue(ctx, "", 0, 10, true)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	keys, err = a.SearchSessionID(ctx, "bob", 0, 10, true)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], ":session:bob")

	// Paging cuts the result window.
	keys, err = a.SearchTokenValue(ctx, "", 1, 1, true)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestTerminalAndTokenListing(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	web, err := a.LoginWithOptions(ctx, "10001", LoginOptions{DeviceType: "web"})
	require.NoError(t, err)
	app, err := a.LoginWithOptions(ctx, "10001", LoginOptions{DeviceType: "app"})
	require.NoError(t, err)

	terminals, err := a.TerminalList(ctx, "10001")
	require.NoError(t, err)
	require.Len(t, terminals, 2)
	assert.Less(t, terminals[0].Index, terminals[1].Index)

	tokens, err := a.TokenValueList(ctx, "10001", "web")
	require.NoError(t, err)
	assert.Equal(t, []string{web}, tokens)

	tokens, err = a.TokenValueList(ctx, "10001", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{web, app}, tokens)

	// Unknown accounts list as empty, not as an error.
	terminals, err = a.TerminalList(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, terminals)
}

func TestConcurrentLoginsSameAccount(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Share = false
	cfg.MaxLoginCount = -1
	a := newTestAuthority(t, WithConfig(cfg))

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.LoginWithOptions(ctx, "10001", LoginOptions{DeviceType: fmt.Sprintf("device-%d", i)})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// The account lock serializes terminal bookkeeping, so nothing is lost
	// and every terminal gets its own ordinal.
	terminals, err := a.TerminalList(ctx, "10001")
	require.NoError(t, err)
	assert.Len(t, terminals, n)

	seen := make(map[int64]bool, n)
	for _, term := range terminals {
		assert.False(t, seen[term.Index], "ordinal %d assigned twice", term.Index)
		seen[term.Index] = true
	}
}
