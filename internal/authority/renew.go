package authority

import (
	"context"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
	"github.com/orris-inc/tokengate/internal/storage"
)

// RenewTimeout extends the hard TTL of a live token to ttl seconds and
// cascades: the token session gets the exact same TTL, the account session is
// extended but never shortened (other devices may need the time), and the
// activity record follows the token.
func (a *Authority) RenewTimeout(ctx context.Context, tokenValue string, ttl int64) error {
	raw, err := a.store.Get(ctx, a.tokenKey(tokenValue))
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if raw == "" {
		return apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeInvalidToken)
	}
	state, loginID := parseTokenValue(raw)
	switch state {
	case StateTimeout:
		return apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeTokenTimeout)
	case StateReplaced:
		return apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeBeReplaced)
	case StateKicked:
		return apperrors.NewNotLoggedInError(a.loginType, apperrors.CodeKickOut)
	}

	if err := a.store.UpdateTimeout(ctx, a.tokenKey(tokenValue), ttl); err != nil {
		return apperrors.NewStoreError(err)
	}

	tsKey := a.tokenSessionKey(tokenValue)
	tsTimeout, err := a.store.GetTimeout(ctx, tsKey)
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if tsTimeout != storage.NotValueExpire {
		if err := a.store.UpdateTimeout(ctx, tsKey, ttl); err != nil {
			return apperrors.NewStoreError(err)
		}
	}

	sess, err := a.sessions.GetSession(ctx, a.sessionKey(loginID))
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if sess != nil {
		if err := sess.UpdateMaxTimeout(ctx, ttl); err != nil {
			return apperrors.NewStoreError(err)
		}
	}

	laKey := a.lastActiveKey(tokenValue)
	laTimeout, err := a.store.GetTimeout(ctx, laKey)
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if laTimeout != storage.NotValueExpire {
		if err := a.store.UpdateTimeout(ctx, laKey, ttl); err != nil {
			return apperrors.NewStoreError(err)
		}
	}

	a.notify("renew", func(l Listener) { l.DoRenewTimeout(a.loginType, tokenValue, ttl) })
	a.log.Debug("token timeout renewed", "login_id", loginID, "ttl", ttl)
	return nil
}
