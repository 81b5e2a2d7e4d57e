package authority

import (
	"context"

	"github.com/orris-inc/tokengate/internal/session"
	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
)

// Administrative enumeration over the store's key space.

// SearchTokenValue pages through the stored token mapping keys containing keyword.
func (a *Authority) SearchTokenValue(ctx context.Context, keyword string, start, size int, ascending bool) ([]string, error) {
	keys, err := a.store.SearchKeys(ctx, a.tokenKeyPrefix(), keyword, start, size, ascending)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return keys, nil
}

// SearchSessionID pages through the stored account session keys containing keyword.
func (a *Authority) SearchSessionID(ctx context.Context, keyword string, start, size int, ascending bool) ([]string, error) {
	keys, err := a.store.SearchKeys(ctx, a.sessionKeyPrefix(), keyword, start, size, ascending)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return keys, nil
}

// TerminalList returns the live terminals of loginID; accounts without a
// session yield an empty list.
func (a *Authority) TerminalList(ctx context.Context, loginID string) ([]*session.Terminal, error) {
	sess, err := a.sessions.GetSession(ctx, a.sessionKey(loginID))
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if sess == nil {
		return []*session.Terminal{}, nil
	}
	return sess.TerminalsByDevice(""), nil
}

// TokenValueList returns the tokens of loginID's terminals for one device
// type; "" selects all devices.
func (a *Authority) TokenValueList(ctx context.Context, loginID, deviceType string) ([]string, error) {
	sess, err := a.sessions.GetSession(ctx, a.sessionKey(loginID))
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if sess == nil {
		return []string{}, nil
	}
	return sess.TokenValues(deviceType), nil
}
