package authority

import (
	"context"

	"github.com/orris-inc/tokengate/internal/session"
	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
	"github.com/orris-inc/tokengate/internal/storage"
)

// AccountSession returns the account session of loginID. With create=true an
// absent session is created (under the account lock) with the configured
// token TTL; otherwise nil is returned for absent sessions.
func (a *Authority) AccountSession(ctx context.Context, loginID string, create bool) (*session.Session, error) {
	if create {
		unlock := a.locks.lock(a.loginType + ":" + loginID)
		defer unlock()
	}
	return a.accountSessionLocked(ctx, loginID, create, a.cfg.Timeout)
}

func (a *Authority) accountSessionLocked(ctx context.Context, loginID string, create bool, ttl int64) (*session.Session, error) {
	key := a.sessionKey(loginID)
	sess, err := a.sessions.GetSession(ctx, key)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if sess != nil || !create {
		return sess, nil
	}
	sess = session.New(key, session.TypeAccount)
	sess.LoginID = loginID
	if err := a.sessions.SetSession(ctx, sess, ttl); err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	a.notify("session-create", func(l Listener) { l.DoCreateSession(key) })
	return sess, nil
}

// TokenSession returns the token-scoped session of tokenValue, creating it
// lazily when create=true. When the engine is configured with
// TokenSessionCheckLogin, creation requires a live login.
func (a *Authority) TokenSession(ctx context.Context, tokenValue string, create bool) (*session.Session, error) {
	if create && a.cfg.TokenSessionCheckLogin {
		if err := a.CheckLogin(ctx, tokenValue); err != nil {
			return nil, err
		}
	}
	key := a.tokenSessionKey(tokenValue)
	sess, err := a.sessions.GetSession(ctx, key)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if sess != nil || !create {
		return sess, nil
	}
	return a.createTokenSession(ctx, tokenValue)
}

// createTokenSession writes a fresh token session whose TTL tracks the
// owning token's remaining time, so renewal never extends it past the token.
func (a *Authority) createTokenSession(ctx context.Context, tokenValue string) (*session.Session, error) {
	key := a.tokenSessionKey(tokenValue)
	if existing, err := a.sessions.GetSession(ctx, key); err != nil {
		return nil, apperrors.NewStoreError(err)
	} else if existing != nil {
		return existing, nil
	}

	ttl := a.cfg.Timeout
	mappingTTL, err := a.store.GetTimeout(ctx, a.tokenKey(tokenValue))
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if mappingTTL != storage.NotValueExpire {
		ttl = mappingTTL
	}

	sess := session.New(key, session.TypeToken)
	sess.Token = tokenValue
	if err := a.sessions.SetSession(ctx, sess, ttl); err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	a.notify("session-create", func(l Listener) { l.DoCreateSession(key) })
	return sess, nil
}

// RawSession returns the custom session bag stored under
// <ns>:raw-session:<type>:<valueID>, creating it when asked to. Raw sessions
// live on the configured token timeout, independent of any login.
func (a *Authority) RawSession(ctx context.Context, sessionType, valueID string, create bool) (*session.Session, error) {
	key := a.rawSessionKey(sessionType, valueID)
	sess, err := a.sessions.GetSession(ctx, key)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if sess != nil || !create {
		return sess, nil
	}
	sess = session.New(key, session.TypeCustom)
	if err := a.sessions.SetSession(ctx, sess, a.cfg.Timeout); err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	a.notify("session-create", func(l Listener) { l.DoCreateSession(key) })
	return sess, nil
}
