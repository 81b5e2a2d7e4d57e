package authority

import (
	"context"

	"github.com/orris-inc/tokengate/internal/session"
	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// logoutMode selects what happens to the token-to-identity mapping when a
// terminal is torn down: plain logout deletes it, kickout and replace
// overwrite it with a sentinel so later lookups can report why.
type logoutMode int

const (
	modeLogout logoutMode = iota
	modeKickout
	modeReplace
)

// LogoutOptions narrows a loginID-scoped logout.
type LogoutOptions struct {
	// DeviceType limits the operation to one device type; "" covers all.
	DeviceType string
	// KeepTokenSession preserves the token sessions of the affected tokens.
	KeepTokenSession bool
}

// Logout ends every login session of loginID. Calling it for an account with
// no live session is a no-op.
func (a *Authority) Logout(ctx context.Context, loginID string) error {
	return a.LogoutWithOptions(ctx, loginID, LogoutOptions{})
}

// LogoutWithOptions ends the login sessions of loginID selected by opts.
func (a *Authority) LogoutWithOptions(ctx context.Context, loginID string, opts LogoutOptions) error {
	unlock := a.locks.lock(a.loginType + ":" + loginID)
	defer unlock()
	return a.logoutRangeLocked(ctx, loginID, opts.DeviceType, modeLogout, opts.KeepTokenSession)
}

// Kickout forces every session of loginID offline, leaving the kicked marker
// on each token so the clients learn what happened.
func (a *Authority) Kickout(ctx context.Context, loginID string) error {
	return a.KickoutByDevice(ctx, loginID, "")
}

// KickoutByDevice kicks only the terminals of one device type; "" covers all.
func (a *Authority) KickoutByDevice(ctx context.Context, loginID, deviceType string) error {
	unlock := a.locks.lock(a.loginType + ":" + loginID)
	defer unlock()
	return a.logoutRangeLocked(ctx, loginID, deviceType, modeKickout, false)
}

// Replaced marks the terminals of (loginID, deviceType) as pushed out by a
// newer login. The account session survives even when emptied, because a
// replace is immediately followed by a fresh login.
func (a *Authority) Replaced(ctx context.Context, loginID, deviceType string) error {
	unlock := a.locks.lock(a.loginType + ":" + loginID)
	defer unlock()
	return a.logoutRangeLocked(ctx, loginID, deviceType, modeReplace, false)
}

// LogoutByToken ends the single session carrying tokenValue. Unknown or
// already-dead tokens are cleaned up without error.
func (a *Authority) LogoutByToken(ctx context.Context, tokenValue string) error {
	return a.endTokenSession(ctx, tokenValue, modeLogout, false)
}

// KickoutByToken kicks the single session carrying tokenValue.
func (a *Authority) KickoutByToken(ctx context.Context, tokenValue string) error {
	return a.endTokenSession(ctx, tokenValue, modeKickout, false)
}

func (a *Authority) endTokenSession(ctx context.Context, tokenValue string, mode logoutMode, keepSession bool) error {
	raw, err := a.store.Get(ctx, a.tokenKey(tokenValue))
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	state, loginID := parseTokenValue(raw)
	if raw == "" || state != StateActive {
		// Nothing owns this token anymore; scrub the leftovers and make
		// sure a sentinel mapping does not outlive an explicit logout.
		return a.deactivateToken(ctx, tokenValue, mode, keepSession)
	}

	unlock := a.locks.lock(a.loginType + ":" + loginID)
	defer unlock()

	sess, err := a.sessions.GetSession(ctx, a.sessionKey(loginID))
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if sess == nil {
		return a.deactivateToken(ctx, tokenValue, mode, keepSession)
	}
	terminal := sess.Terminal(tokenValue)
	if terminal == nil {
		return a.deactivateToken(ctx, tokenValue, mode, keepSession)
	}
	if err := a.removeTerminalLocked(ctx, loginID, sess, terminal, mode, keepSession); err != nil {
		return err
	}
	return a.cascadeDeleteLocked(ctx, loginID, sess, mode)
}

// logoutRangeLocked tears down every terminal of (loginID, deviceType).
// Caller holds the account lock. Absent sessions make it a no-op.
func (a *Authority) logoutRangeLocked(ctx context.Context, loginID, deviceType string, mode logoutMode, keepSession bool) error {
	sess, err := a.sessions.GetSession(ctx, a.sessionKey(loginID))
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if sess == nil {
		return nil
	}
	for _, terminal := range sess.TerminalsByDevice(deviceType) {
		if err := a.removeTerminalLocked(ctx, loginID, sess, terminal, mode, keepSession); err != nil {
			return err
		}
	}
	return a.cascadeDeleteLocked(ctx, loginID, sess, mode)
}

// removeTerminalLocked is the single-terminal teardown: activity record,
// token session, mapping, terminal entry, event. Caller holds the account lock.
func (a *Authority) removeTerminalLocked(ctx context.Context, loginID string, sess *session.Session, terminal *session.Terminal, mode logoutMode, keepSession bool) error {
	if err := a.deactivateToken(ctx, terminal.Token, mode, keepSession); err != nil {
		return err
	}
	if _, err := sess.RemoveTerminal(ctx, terminal.Token); err != nil {
		return apperrors.NewStoreError(err)
	}

	tokenValue := terminal.Token
	switch mode {
	case modeLogout:
		a.notify("logout", func(l Listener) { l.DoLogout(a.loginType, loginID, tokenValue) })
		a.log.Info("account logged out", "login_id", loginID, "device_type", terminal.DeviceType)
	case modeKickout:
		a.notify("kickout", func(l Listener) { l.DoKickout(a.loginType, loginID, tokenValue) })
		a.log.Info("account kicked out", "login_id", loginID, "device_type", terminal.DeviceType)
	case modeReplace:
		a.notify("replaced", func(l Listener) { l.DoReplaced(a.loginType, loginID, tokenValue) })
		a.log.Info("account login replaced", "login_id", loginID, "device_type", terminal.DeviceType)
	}
	return nil
}

// deactivateToken clears the per-token records and settles the mapping
// according to mode. Safe to call for tokens that no longer exist.
func (a *Authority) deactivateToken(ctx context.Context, tokenValue string, mode logoutMode, keepSession bool) error {
	if err := a.store.Delete(ctx, a.lastActiveKey(tokenValue)); err != nil {
		return apperrors.NewStoreError(err)
	}
	if !keepSession {
		if err := a.sessions.DeleteSession(ctx, a.tokenSessionKey(tokenValue)); err != nil {
			return apperrors.NewStoreError(err)
		}
	}

	key := a.tokenKey(tokenValue)
	var err error
	switch mode {
	case modeLogout:
		err = a.store.Delete(ctx, key)
	case modeKickout:
		err = a.store.Update(ctx, key, sentinelKicked)
	case modeReplace:
		err = a.store.Update(ctx, key, sentinelReplaced)
	}
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	return nil
}

// cascadeDeleteLocked removes an account session once its terminal list is
// empty. Replace skips the delete to avoid churn right before the new login.
func (a *Authority) cascadeDeleteLocked(ctx context.Context, loginID string, sess *session.Session, mode logoutMode) error {
	if len(sess.Terminals) > 0 || mode == modeReplace {
		return nil
	}
	if err := a.sessions.DeleteSession(ctx, a.sessionKey(loginID)); err != nil {
		return apperrors.NewStoreError(err)
	}
	a.notify("session-destroy", func(l Listener) { l.DoLogoutSession(sess.ID) })
	return nil
}
