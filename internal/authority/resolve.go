package authority

import (
	"context"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// LoginID resolves a bare token to its owning account. Every way the token
// can be dead maps to its own not-logged-in reason, so the caller can tell
// "please log in" from "you were kicked". On success the activity window is
// slid forward when auto-renew is on.
func (a *Authority) LoginID(ctx context.Context, tokenValue string) (string, error) {
	if tokenValue == "" {
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeNotToken)
	}
	raw, err := a.store.Get(ctx, a.tokenKey(tokenValue))
	if err != nil {
		return "", apperrors.NewStoreError(err)
	}
	if raw == "" {
		// A lapsed TTL and a token that never existed are indistinguishable
		// here; both degrade to invalid-token.
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeInvalidToken)
	}
	state, loginID := parseTokenValue(raw)
	switch state {
	case StateTimeout:
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeTokenTimeout)
	case StateReplaced:
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeBeReplaced)
	case StateKicked:
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeKickOut)
	}

	frozen, err := a.isFrozen(ctx, tokenValue)
	if err != nil {
		return "", err
	}
	if frozen {
		// Computed on read, nothing is deleted: renewed activity clears it.
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeTokenFreeze)
	}

	if a.cfg.AutoRenew {
		if err := a.UpdateLastActive(ctx, tokenValue); err != nil {
			return "", err
		}
	}
	return loginID, nil
}

// ResolveToken is LoginID for a credential as presented by a client,
// including the configured token prefix.
func (a *Authority) ResolveToken(ctx context.Context, presented string) (string, error) {
	tokenValue, ok := a.UnwrapPrefix(presented)
	if !ok {
		return "", apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeNoPrefix)
	}
	return a.LoginID(ctx, tokenValue)
}

// CheckLogin asserts tokenValue belongs to a live login.
func (a *Authority) CheckLogin(ctx context.Context, tokenValue string) error {
	_, err := a.LoginID(ctx, tokenValue)
	return err
}

// IsLogin reports whether tokenValue belongs to a live login. Not-logged-in
// conditions convert to false; store failures propagate.
func (a *Authority) IsLogin(ctx context.Context, tokenValue string) (bool, error) {
	_, err := a.LoginID(ctx, tokenValue)
	if err != nil {
		if apperrors.IsNotLoggedIn(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TokenTimeout returns the remaining hard TTL of tokenValue in seconds, with
// the storage sentinels for never-expire and absent. Freeze state does not
// affect it.
func (a *Authority) TokenTimeout(ctx context.Context, tokenValue string) (int64, error) {
	ttl, err := a.store.GetTimeout(ctx, a.tokenKey(tokenValue))
	if err != nil {
		return 0, apperrors.NewStoreError(err)
	}
	return ttl, nil
}

// TokenState reports the lifecycle state of the stored mapping without
// touching the activity window. Absent mappings report StateTimeout-like
// absence through the second result.
func (a *Authority) TokenState(ctx context.Context, tokenValue string) (TokenState, bool, error) {
	raw, err := a.store.Get(ctx, a.tokenKey(tokenValue))
	if err != nil {
		return StateActive, false, apperrors.NewStoreError(err)
	}
	if raw == "" {
		return StateActive, false, nil
	}
	state, _ := parseTokenValue(raw)
	return state, true, nil
}
