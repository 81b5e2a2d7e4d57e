package authority

import (
	"context"
	"strconv"
	"strings"

	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// The activity record holds a 13-digit millisecond timestamp, optionally
// followed by ",<seconds>" when the token carries its own freeze window.
// It only feeds the frozen-state computation and never touches the hard TTL.

func (a *Authority) setLastActive(ctx context.Context, tokenValue string, activeTimeout, ttl int64) error {
	value := strconv.FormatInt(a.nowMilli(), 10)
	if activeTimeout != a.cfg.ActiveTimeout {
		value += "," + strconv.FormatInt(activeTimeout, 10)
	}
	if err := a.store.Set(ctx, a.lastActiveKey(tokenValue), value, ttl); err != nil {
		return apperrors.NewStoreError(err)
	}
	return nil
}

// lastActive parses the activity record: timestamp, effective freeze window,
// and whether a record exists at all.
func (a *Authority) lastActive(ctx context.Context, tokenValue string) (ts int64, window int64, exists bool, err error) {
	raw, err := a.store.Get(ctx, a.lastActiveKey(tokenValue))
	if err != nil {
		return 0, 0, false, apperrors.NewStoreError(err)
	}
	if raw == "" {
		return 0, 0, false, nil
	}
	window = a.cfg.ActiveTimeout
	parts := strings.SplitN(raw, ",", 2)
	ts, parseErr := strconv.ParseInt(parts[0], 10, 64)
	if parseErr != nil {
		return 0, 0, false, apperrors.NewInternalError("corrupt activity record", raw)
	}
	if len(parts) == 2 {
		override, parseErr := strconv.ParseInt(parts[1], 10, 64)
		if parseErr != nil {
			return 0, 0, false, apperrors.NewInternalError("corrupt activity record", raw)
		}
		window = override
	}
	return ts, window, true, nil
}

// UpdateLastActive slides the activity timestamp to now, keeping a per-token
// window override and the record's TTL. Tokens without a record are left alone.
func (a *Authority) UpdateLastActive(ctx context.Context, tokenValue string) error {
	_, window, exists, err := a.lastActive(ctx, tokenValue)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	value := strconv.FormatInt(a.nowMilli(), 10)
	if window != a.cfg.ActiveTimeout {
		value += "," + strconv.FormatInt(window, 10)
	}
	if err := a.store.Update(ctx, a.lastActiveKey(tokenValue), value); err != nil {
		return apperrors.NewStoreError(err)
	}
	return nil
}

// isFrozen implements the point-in-time freeze computation.
func (a *Authority) isFrozen(ctx context.Context, tokenValue string) (bool, error) {
	ts, window, exists, err := a.lastActive(ctx, tokenValue)
	if err != nil {
		return false, err
	}
	if !exists || window == -1 {
		return false, nil
	}
	return a.nowMilli()-ts > window*1000, nil
}

// IsFreeze reports whether tokenValue is currently frozen by inactivity.
func (a *Authority) IsFreeze(ctx context.Context, tokenValue string) (bool, error) {
	return a.isFrozen(ctx, tokenValue)
}

// LastActiveTime returns the millisecond timestamp of the token's last
// activity, or 0 when no activity is tracked for it.
func (a *Authority) LastActiveTime(ctx context.Context, tokenValue string) (int64, error) {
	ts, _, _, err := a.lastActive(ctx, tokenValue)
	return ts, err
}
