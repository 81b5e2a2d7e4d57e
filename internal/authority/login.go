package authority

import (
	"context"
	"fmt"

	"github.com/orris-inc/tokengate/internal/session"
	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// LoginOptions carries the per-login overrides. Zero values fall back to the
// engine configuration.
type LoginOptions struct {
	// DeviceType groups terminals; defaults to DefaultDeviceType.
	DeviceType string
	// DeviceID optionally identifies the concrete client instance.
	DeviceID string
	// Timeout overrides the token TTL in seconds; 0 uses the configured value.
	Timeout int64
	// ActiveTimeout overrides the freeze window in seconds; 0 uses the
	// configured value, -1 disables freeze tracking for this token.
	ActiveTimeout int64
	// Extra is attached to the terminal record.
	Extra map[string]any
	// Token, when set, skips minting and uses the supplied value. It must
	// not already be mapped.
	Token string
}

func (o *LoginOptions) applyDefaults(cfg *Config) {
	if o.DeviceType == "" {
		o.DeviceType = DefaultDeviceType
	}
	if o.Timeout == 0 {
		o.Timeout = cfg.Timeout
	}
	if o.ActiveTimeout == 0 {
		o.ActiveTimeout = cfg.ActiveTimeout
	}
}

// Login creates a login session for loginID with default options and returns
// the minted token.
func (a *Authority) Login(ctx context.Context, loginID string) (string, error) {
	return a.LoginWithOptions(ctx, loginID, LoginOptions{})
}

// LoginWithOptions validates the account, applies the concurrency policy,
// settles on a token, and wires up the mapping, terminal, activity record and
// (optionally) token session. The account's session is mutated under the
// account lock so two concurrent logins cannot drop each other's terminal.
func (a *Authority) LoginWithOptions(ctx context.Context, loginID string, opts LoginOptions) (string, error) {
	if !isValidLoginID(loginID) {
		return "", apperrors.NewValidationError("invalid login id", loginID)
	}
	opts.applyDefaults(a.cfg)

	// A banned account cannot log in at all.
	if err := a.CheckDisable(ctx, loginID); err != nil {
		return "", err
	}

	unlock := a.locks.lock(a.loginType + ":" + loginID)
	defer unlock()

	if !a.cfg.Concurrent {
		// Push out the previous login(s) before minting anything new.
		device := opts.DeviceType
		if a.cfg.ReplacedRange == ReplacedRangeAllDevice {
			device = ""
		}
		if err := a.logoutRangeLocked(ctx, loginID, device, modeReplace, false); err != nil {
			return "", err
		}
	}

	tokenValue, err := a.settleToken(ctx, loginID, opts)
	if err != nil {
		return "", err
	}

	sess, err := a.accountSessionLocked(ctx, loginID, true, opts.Timeout)
	if err != nil {
		return "", err
	}
	err = sess.AddTerminal(ctx, &session.Terminal{
		DeviceType: opts.DeviceType,
		DeviceID:   opts.DeviceID,
		Token:      tokenValue,
		Extra:      opts.Extra,
	})
	if err != nil {
		return "", err
	}
	// A long-lived device must never have its remaining time cut by a
	// shorter login, so the session TTL only ever grows here.
	if err := sess.UpdateMaxTimeout(ctx, opts.Timeout); err != nil {
		return "", err
	}

	if opts.ActiveTimeout != -1 {
		if err := a.setLastActive(ctx, tokenValue, opts.ActiveTimeout, opts.Timeout); err != nil {
			return "", err
		}
	}

	if a.cfg.RightNowCreateTokenSession {
		if _, err := a.createTokenSession(ctx, tokenValue); err != nil {
			return "", err
		}
	}

	a.notify("login", func(l Listener) { l.DoLogin(a.loginType, loginID, tokenValue, opts) })
	a.log.Info("account logged in", "login_id", loginID, "device_type", opts.DeviceType)

	if a.cfg.Concurrent && a.cfg.MaxLoginCount != -1 {
		if err := a.evictOverflowLocked(ctx, loginID, sess); err != nil {
			return "", err
		}
	}

	return tokenValue, nil
}

// settleToken decides which token the login ends up with and writes its
// identity mapping: a shared reuse of an existing token, a caller-supplied
// token, or a fresh mint.
func (a *Authority) settleToken(ctx context.Context, loginID string, opts LoginOptions) (string, error) {
	tokenKeyOf := a.tokenKey

	if opts.Token != "" {
		raw, err := a.store.Get(ctx, tokenKeyOf(opts.Token))
		if err != nil {
			return "", apperrors.NewStoreError(err)
		}
		if raw != "" {
			return "", apperrors.NewValidationError("supplied token is already in use")
		}
		if err := a.store.Set(ctx, tokenKeyOf(opts.Token), loginID, opts.Timeout); err != nil {
			return "", apperrors.NewStoreError(err)
		}
		return opts.Token, nil
	}

	if a.cfg.Concurrent && a.cfg.Share {
		reusable, err := a.reusableToken(ctx, loginID, opts.DeviceType)
		if err != nil {
			return "", err
		}
		if reusable != "" {
			// Refresh the mapping so the shared token honors this login's TTL.
			if err := a.store.Set(ctx, tokenKeyOf(reusable), loginID, opts.Timeout); err != nil {
				return "", apperrors.NewStoreError(err)
			}
			return reusable, nil
		}
	}

	// Mint-until-unique, bounded. With a conditional setter the check and
	// the write are one atomic step; otherwise this is check-then-act and
	// the bounded retry plus fail-fast is the accepted mitigation.
	for i := 0; i < a.cfg.MaxTryTimes; i++ {
		candidate, err := a.mint(a.loginType, loginID, opts.DeviceType)
		if err != nil {
			return "", apperrors.NewInternalError("token mint failed", err.Error())
		}
		key := tokenKeyOf(candidate)
		if a.condSet != nil {
			ok, err := a.condSet.SetIfAbsent(ctx, key, loginID, opts.Timeout)
			if err != nil {
				return "", apperrors.NewStoreError(err)
			}
			if ok {
				return candidate, nil
			}
			continue
		}
		raw, err := a.store.Get(ctx, key)
		if err != nil {
			return "", apperrors.NewStoreError(err)
		}
		if raw == "" {
			if err := a.store.Set(ctx, key, loginID, opts.Timeout); err != nil {
				return "", apperrors.NewStoreError(err)
			}
			return candidate, nil
		}
	}
	return "", apperrors.NewInternalError("unique token mint exhausted",
		fmt.Sprintf("gave up after %d attempts", a.cfg.MaxTryTimes))
}

// reusableToken returns the newest token of (loginID, deviceType) whose
// mapping is still live, or "" when there is nothing to share.
func (a *Authority) reusableToken(ctx context.Context, loginID, deviceType string) (string, error) {
	sess, err := a.sessions.GetSession(ctx, a.sessionKey(loginID))
	if err != nil {
		return "", apperrors.NewStoreError(err)
	}
	if sess == nil {
		return "", nil
	}
	terminals := sess.TerminalsByDevice(deviceType)
	for i := len(terminals) - 1; i >= 0; i-- {
		raw, err := a.store.Get(ctx, a.tokenKey(terminals[i].Token))
		if err != nil {
			return "", apperrors.NewStoreError(err)
		}
		if state, id := parseTokenValue(raw); raw != "" && state == StateActive && id == loginID {
			return terminals[i].Token, nil
		}
	}
	return "", nil
}

// evictOverflowLocked trims the oldest terminals until the account is within
// MaxLoginCount, using the configured overflow mode. Caller holds the account lock.
func (a *Authority) evictOverflowLocked(ctx context.Context, loginID string, sess *session.Session) error {
	for len(sess.Terminals) > a.cfg.MaxLoginCount {
		oldest := sess.Terminals[0]
		mode := modeLogout
		switch a.cfg.OverflowLogoutMode {
		case OverflowKickout:
			mode = modeKickout
		case OverflowReplace:
			mode = modeReplace
		}
		if err := a.removeTerminalLocked(ctx, loginID, sess, oldest, mode, false); err != nil {
			return err
		}
		a.log.Info("evicted oldest terminal over login cap",
			"login_id", loginID, "device_type", oldest.DeviceType, "mode", a.cfg.OverflowLogoutMode)
	}
	return nil
}
