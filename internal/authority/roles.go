package authority

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// RoleList fetches the account's roles from the data source. The engine does
// not cache these; caching policy belongs to the data source.
func (a *Authority) RoleList(ctx context.Context, loginID string) ([]string, error) {
	return a.ds.GetRoleList(ctx, loginID, a.loginType)
}

// PermissionList fetches the account's permissions from the data source.
func (a *Authority) PermissionList(ctx context.Context, loginID string) ([]string, error) {
	return a.ds.GetPermissionList(ctx, loginID, a.loginType)
}

// CheckRole asserts the caller behind tokenValue holds role.
func (a *Authority) CheckRole(ctx context.Context, tokenValue, role string) error {
	return a.CheckRoleAnd(ctx, tokenValue, role)
}

// CheckRoleAnd asserts every listed role is held.
func (a *Authority) CheckRoleAnd(ctx context.Context, tokenValue string, roles ...string) error {
	loginID, err := a.LoginID(ctx, tokenValue)
	if err != nil {
		return err
	}
	held, err := a.RoleList(ctx, loginID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if !hasElement(held, role) {
			return apperrors.NewNotInRoleError(a.loginType, role)
		}
	}
	return nil
}

// CheckRoleOr asserts at least one listed role is held.
func (a *Authority) CheckRoleOr(ctx context.Context, tokenValue string, roles ...string) error {
	loginID, err := a.LoginID(ctx, tokenValue)
	if err != nil {
		return err
	}
	held, err := a.RoleList(ctx, loginID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if hasElement(held, role) {
			return nil
		}
	}
	if len(roles) == 0 {
		return nil
	}
	return apperrors.NewNotInRoleError(a.loginType, roles[0])
}

// HasRole is the boolean form of CheckRole: authentication and authorization
// failures convert to false, anything else propagates.
func (a *Authority) HasRole(ctx context.Context, tokenValue, role string) (bool, error) {
	return swallowAuthz(a.CheckRole(ctx, tokenValue, role))
}

// CheckPermission asserts the caller behind tokenValue holds permission.
func (a *Authority) CheckPermission(ctx context.Context, tokenValue, permission string) error {
	return a.CheckPermissionAnd(ctx, tokenValue, permission)
}

// CheckPermissionAnd asserts every listed permission is held.
func (a *Authority) CheckPermissionAnd(ctx context.Context, tokenValue string, permissions ...string) error {
	loginID, err := a.LoginID(ctx, tokenValue)
	if err != nil {
		return err
	}
	held, err := a.PermissionList(ctx, loginID)
	if err != nil {
		return err
	}
	for _, permission := range permissions {
		if !hasElement(held, permission) {
			return apperrors.NewNotInPermissionError(a.loginType, permission)
		}
	}
	return nil
}

// CheckPermissionOr asserts at least one listed permission is held.
func (a *Authority) CheckPermissionOr(ctx context.Context, tokenValue string, permissions ...string) error {
	loginID, err := a.LoginID(ctx, tokenValue)
	if err != nil {
		return err
	}
	held, err := a.PermissionList(ctx, loginID)
	if err != nil {
		return err
	}
	for _, permission := range permissions {
		if hasElement(held, permission) {
			return nil
		}
	}
	if len(permissions) == 0 {
		return nil
	}
	return apperrors.NewNotInPermissionError(a.loginType, permissions[0])
}

// HasPermission is the boolean form of CheckPermission.
func (a *Authority) HasPermission(ctx context.Context, tokenValue, permission string) (bool, error) {
	return swallowAuthz(a.CheckPermission(ctx, tokenValue, permission))
}

// swallowAuthz converts the expected auth failures to false and lets store
// failures through.
func swallowAuthz(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperrors.IsNotLoggedIn(err) {
		return false, nil
	}
	var roleErr *apperrors.NotInRoleError
	var permErr *apperrors.NotInPermissionError
	if errors.As(err, &roleErr) || errors.As(err, &permErr) {
		return false, nil
	}
	return false, err
}

// hasElement reports whether element is covered by the held list. List
// entries may carry "*" wildcards, so "user.*" covers "user.add".
func hasElement(held []string, element string) bool {
	for _, pattern := range held {
		if vagueMatch(pattern, element) {
			return true
		}
	}
	return false
}

// vagueMatch matches value against a pattern whose "*" segments match any
// run of characters.
func vagueMatch(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(value, part)
		if idx < 0 {
			return false
		}
		value = value[idx+len(part):]
	}
	return strings.HasSuffix(value, parts[len(parts)-1])
}
