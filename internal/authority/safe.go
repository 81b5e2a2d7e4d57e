package authority

import (
	"context"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// Step-up ("safe") authentication: a short-lived presence marker scoped to
// (token, service). It has no bearing on the main login state and expires on
// its own.

const safeMarker = "1"

// OpenSafe records a successful step-up for tokenValue on service, valid for
// ttl seconds. The token must belong to a live login.
func (a *Authority) OpenSafe(ctx context.Context, tokenValue, service string, ttl int64) error {
	if err := a.CheckLogin(ctx, tokenValue); err != nil {
		return err
	}
	if err := a.store.Set(ctx, a.safeKey(service, tokenValue), safeMarker, ttl); err != nil {
		return apperrors.NewStoreError(err)
	}
	a.notify("open-safe", func(l Listener) { l.DoOpenSafe(a.loginType, tokenValue, service, ttl) })
	a.log.Debug("safe auth opened", "service", service, "ttl", ttl)
	return nil
}

// IsSafe reports whether tokenValue currently passes step-up for service.
func (a *Authority) IsSafe(ctx context.Context, tokenValue, service string) (bool, error) {
	if tokenValue == "" {
		return false, nil
	}
	raw, err := a.store.Get(ctx, a.safeKey(service, tokenValue))
	if err != nil {
		return false, apperrors.NewStoreError(err)
	}
	return raw != "", nil
}

// CheckSafe asserts tokenValue passes step-up for service.
func (a *Authority) CheckSafe(ctx context.Context, tokenValue, service string) error {
	ok, err := a.IsSafe(ctx, tokenValue, service)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotPassedSafeAuthError(a.loginType, service)
	}
	return nil
}

// SafeTime returns the remaining seconds of the step-up marker, with the
// storage sentinels for never-expire and absent.
func (a *Authority) SafeTime(ctx context.Context, tokenValue, service string) (int64, error) {
	ttl, err := a.store.GetTimeout(ctx, a.safeKey(service, tokenValue))
	if err != nil {
		return 0, apperrors.NewStoreError(err)
	}
	return ttl, nil
}

// CloseSafe withdraws the step-up marker ahead of its expiry.
func (a *Authority) CloseSafe(ctx context.Context, tokenValue, service string) error {
	if err := a.store.Delete(ctx, a.safeKey(service, tokenValue)); err != nil {
		return apperrors.NewStoreError(err)
	}
	a.notify("close-safe", func(l Listener) { l.DoCloseSafe(a.loginType, tokenValue, service) })
	return nil
}
