package authority

import (
	"context"
	"strconv"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// The ban ladder. A stored level of 0 means "explicitly not disabled": it is
// cached like any other answer to bound the external lookup rate, but it
// never blocks anything.

// Disable bans loginID from logging in entirely for ttl seconds (level 1 on
// the login service).
func (a *Authority) Disable(ctx context.Context, loginID string, ttl int64) error {
	return a.DisableLevel(ctx, loginID, DefaultDisableService, 1, ttl)
}

// DisableLevel bans loginID from service at the given level for ttl seconds.
func (a *Authority) DisableLevel(ctx context.Context, loginID, service string, level int, ttl int64) error {
	if level < 1 {
		return apperrors.NewValidationError("disable level must be at least 1", strconv.Itoa(level))
	}
	if err := a.store.Set(ctx, a.disableKey(service, loginID), strconv.Itoa(level), ttl); err != nil {
		return apperrors.NewStoreError(err)
	}
	a.notify("disable", func(l Listener) { l.DoDisable(a.loginType, loginID, service, level, ttl) })
	a.log.Info("account disabled", "login_id", loginID, "service", service, "level", level, "ttl", ttl)
	return nil
}

// GetDisableLevel returns the effective ban level of (loginID, service).
// Cache misses fall through to the data source, and the answer (including a
// negative one) is cached with the TTL the authority supplied.
func (a *Authority) GetDisableLevel(ctx context.Context, loginID, service string) (int, error) {
	raw, err := a.store.Get(ctx, a.disableKey(service, loginID))
	if err != nil {
		return 0, apperrors.NewStoreError(err)
	}
	if raw != "" {
		level, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return 0, apperrors.NewInternalError("corrupt disable record", raw)
		}
		return level, nil
	}

	disabled, err := a.ds.IsDisabled(ctx, loginID, service)
	if err != nil {
		return 0, err
	}
	if disabled.TTL != 0 {
		if err := a.store.Set(ctx, a.disableKey(service, loginID), strconv.Itoa(disabled.Level), disabled.TTL); err != nil {
			return 0, apperrors.NewStoreError(err)
		}
	}
	return disabled.Level, nil
}

// IsDisableLevel reports whether (loginID, service) is banned at limitLevel
// or above. Levels below the threshold, including 0, pass.
func (a *Authority) IsDisableLevel(ctx context.Context, loginID, service string, limitLevel int) (bool, error) {
	level, err := a.GetDisableLevel(ctx, loginID, service)
	if err != nil {
		return false, err
	}
	return level >= 1 && level >= limitLevel, nil
}

// IsDisable reports whether loginID is banned from logging in.
func (a *Authority) IsDisable(ctx context.Context, loginID string) (bool, error) {
	return a.IsDisableLevel(ctx, loginID, DefaultDisableService, 1)
}

// CheckDisableLevel asserts (loginID, service) is not banned at limitLevel or above.
func (a *Authority) CheckDisableLevel(ctx context.Context, loginID, service string, limitLevel int) error {
	level, err := a.GetDisableLevel(ctx, loginID, service)
	if err != nil {
		return err
	}
	if level >= 1 && level >= limitLevel {
		remaining, err := a.DisableTime(ctx, loginID, service)
		if err != nil {
			return err
		}
		return apperrors.NewServiceDisabledError(a.loginType, loginID, service, level, limitLevel, remaining)
	}
	return nil
}

// CheckDisable asserts loginID may log in.
func (a *Authority) CheckDisable(ctx context.Context, loginID string) error {
	return a.CheckDisableLevel(ctx, loginID, DefaultDisableService, 1)
}

// UntieDisable lifts the ban of (loginID, service).
func (a *Authority) UntieDisable(ctx context.Context, loginID, service string) error {
	if err := a.store.Delete(ctx, a.disableKey(service, loginID)); err != nil {
		return apperrors.NewStoreError(err)
	}
	a.notify("untie-disable", func(l Listener) { l.DoUntieDisable(a.loginType, loginID, service) })
	a.log.Info("account ban lifted", "login_id", loginID, "service", service)
	return nil
}

// DisableTime returns the remaining seconds of the ban, with the storage
// sentinels for never-expire and absent.
func (a *Authority) DisableTime(ctx context.Context, loginID, service string) (int64, error) {
	ttl, err := a.store.GetTimeout(ctx, a.disableKey(service, loginID))
	if err != nil {
		return 0, apperrors.NewStoreError(err)
	}
	return ttl, nil
}
