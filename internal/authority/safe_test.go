package authority

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
	"github.com/orris-inc/tokengate/internal/storage"
)

func TestSafeOpenCheckClose(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)

	assert.True(t, apperrors.IsNotPassedSafeAuth(a.CheckSafe(ctx, tok, "pay")))

	require.NoError(t, a.OpenSafe(ctx, tok, "pay", 300))

	ok, err := a.IsSafe(ctx, tok, "pay")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, a.CheckSafe(ctx, tok, "pay"))

	remaining, err := a.SafeTime(ctx, tok, "pay")
	require.NoError(t, err)
	assert.InDelta(t, 300, remaining, 2)

	require.NoError(t, a.CloseSafe(ctx, tok, "pay"))
	assert.True(t, apperrors.IsNotPassedSafeAuth(a.CheckSafe(ctx, tok, "pay")))

	remaining, err = a.SafeTime(ctx, tok, "pay")
	require.NoError(t, err)
	assert.Equal(t, storage.NotValueExpire, remaining)
}

func TestSafeIsServiceScoped(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	require.NoError(t, a.OpenSafe(ctx, tok, "pay", 300))

	// Step-up for one service grants nothing on another.
	assert.NoError(t, a.CheckSafe(ctx, tok, "pay"))
	assert.True(t, apperrors.IsNotPassedSafeAuth(a.CheckSafe(ctx, tok, "delete-account")))
}

func TestSafeRequiresLiveLogin(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	err := a.OpenSafe(ctx, "no-such-token", "pay", 300)
	assert.True(t, apperrors.IsNotLoggedIn(err))

	ok, err := a.IsSafe(ctx, "", "pay")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSafeDiesWithLogout(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t)

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	require.NoError(t, a.OpenSafe(ctx, tok, DefaultSafeService, 300))

	require.NoError(t, a.Logout(ctx, "10001"))

	// The marker may linger in the store, but a dead token cannot use it:
	// every guarded path re-checks the login first.
	err = a.CheckLogin(ctx, tok)
	assert.True(t, apperrors.IsNotLoggedIn(err))
}
