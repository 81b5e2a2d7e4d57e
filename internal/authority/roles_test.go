package authority

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// staticDataSource hands out fixed grants per login id.
type staticDataSource struct {
	NopDataSource
	roles map[string][]string
	perms map[string][]string
}

func (s *staticDataSource) GetRoleList(ctx context.Context, loginID, loginType string) ([]string, error) {
	return s.roles[loginID], nil
}

func (s *staticDataSource) GetPermissionList(ctx context.Context, loginID, loginType string) ([]string, error) {
	return s.perms[loginID], nil
}

func grantedAuthority(t *testing.T) (*Authority, string) {
	t.Helper()
	a := newTestAuthority(t, WithDataSource(&staticDataSource{
		roles: map[string][]string{
			"10001": {"admin", "auditor"},
		},
		perms: map[string][]string{
			"10001": {"user.*", "report:read"},
		},
	}))
	tok, err := a.Login(context.Background(), "10001")
	require.NoError(t, err)
	return a, tok
}

func TestCheckRole(t *testing.T) {
	ctx := context.Background()
	a, tok := grantedAuthority(t)

	assert.NoError(t, a.CheckRole(ctx, tok, "admin"))
	assert.NoError(t, a.CheckRoleAnd(ctx, tok, "admin", "auditor"))
	assert.True(t, apperrors.IsNotInRole(a.CheckRole(ctx, tok, "superuser")))
	assert.True(t, apperrors.IsNotInRole(a.CheckRoleAnd(ctx, tok, "admin", "superuser")))

	assert.NoError(t, a.CheckRoleOr(ctx, tok, "superuser", "auditor"))
	assert.True(t, apperrors.IsNotInRole(a.CheckRoleOr(ctx, tok, "superuser", "root")))
	assert.NoError(t, a.CheckRoleOr(ctx, tok))

	ok, err := a.HasRole(ctx, tok, "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = a.HasRole(ctx, tok, "superuser")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPermissionWildcards(t *testing.T) {
	ctx := context.Background()
	a, tok := grantedAuthority(t)

	// "user.*" covers the whole subtree.
	assert.NoError(t, a.CheckPermission(ctx, tok, "user.add"))
	assert.NoError(t, a.CheckPermission(ctx, tok, "user.delete"))
	assert.NoError(t, a.CheckPermission(ctx, tok, "report:read"))
	assert.True(t, apperrors.IsNotInPermission(a.CheckPermission(ctx, tok, "report:write")))

	assert.NoError(t, a.CheckPermissionAnd(ctx, tok, "user.add", "report:read"))
	assert.NoError(t, a.CheckPermissionOr(ctx, tok, "report:write", "user.add"))
	assert.True(t, apperrors.IsNotInPermission(a.CheckPermissionOr(ctx, tok, "report:write", "billing")))

	ok, err := a.HasPermission(ctx, tok, "user.add")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthzRequiresLogin(t *testing.T) {
	ctx := context.Background()
	a, _ := grantedAuthority(t)

	assert.True(t, apperrors.IsNotLoggedIn(a.CheckRole(ctx, "no-such-token", "admin")))

	// The boolean forms swallow the auth failure instead of erroring.
	ok, err := a.HasRole(ctx, "no-such-token", "admin")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = a.HasPermission(ctx, "no-such-token", "user.add")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleAndPermissionLists(t *testing.T) {
	ctx := context.Background()
	a, _ := grantedAuthority(t)

	roles, err := a.RoleList(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "auditor"}, roles)

	perms, err := a.PermissionList(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, []string{"user.*", "report:read"}, perms)

	// Unknown accounts simply have no grants.
	roles, err = a.RoleList(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestVagueMatch(t *testing.T) {
	cases := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"user.add", "user.add", true},
		{"user.add", "user.delete", false},
		{"user.*", "user.add", true},
		{"user.*", "user", false},
		{"*", "anything", true},
		{"*.read", "report.read", true},
		{"*.read", "report.write", false},
		{"a*c*e", "abcde", true},
		{"a*c*e", "abde", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, vagueMatch(tc.pattern, tc.value),
			"pattern %q value %q", tc.pattern, tc.value)
	}
}
