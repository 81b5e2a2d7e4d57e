package authority

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener collects the event names it saw, in order.
type recordingListener struct {
	NopListener
	seen []string
}

func (r *recordingListener) DoLogin(loginType, loginID, tokenValue string, opts LoginOptions) {
	r.seen = append(r.seen, "login")
}
func (r *recordingListener) DoLogout(loginType, loginID, tokenValue string) {
	r.seen = append(r.seen, "logout")
}
func (r *recordingListener) DoKickout(loginType, loginID, tokenValue string) {
	r.seen = append(r.seen, "kickout")
}
func (r *recordingListener) DoReplaced(loginType, loginID, tokenValue string) {
	r.seen = append(r.seen, "replaced")
}
func (r *recordingListener) DoDisable(loginType, loginID, service string, level int, ttl int64) {
	r.seen = append(r.seen, "disable")
}
func (r *recordingListener) DoUntieDisable(loginType, loginID, service string) {
	r.seen = append(r.seen, "untie-disable")
}
func (r *recordingListener) DoOpenSafe(loginType, tokenValue, service string, ttl int64) {
	r.seen = append(r.seen, "open-safe")
}
func (r *recordingListener) DoCloseSafe(loginType, tokenValue, service string) {
	r.seen = append(r.seen, "close-safe")
}
func (r *recordingListener) DoCreateSession(id string) {
	r.seen = append(r.seen, "session-create")
}
func (r *recordingListener) DoLogoutSession(id string) {
	r.seen = append(r.seen, "session-destroy")
}
func (r *recordingListener) DoRenewTimeout(loginType, tokenValue string, ttl int64) {
	r.seen = append(r.seen, "renew")
}

// panicListener blows up on every login.
type panicListener struct {
	NopListener
}

func (panicListener) DoLogin(loginType, loginID, tokenValue string, opts LoginOptions) {
	panic("listener gone wrong")
}

func TestLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	rec := &recordingListener{}
	a := newTestAuthority(t, WithListener(rec))

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, []string{"session-create", "login"}, rec.seen)

	rec.seen = nil
	require.NoError(t, a.Logout(ctx, "10001"))
	assert.Equal(t, []string{"logout", "session-destroy"}, rec.seen)

	rec.seen = nil
	tok, err = a.Login(ctx, "10001")
	require.NoError(t, err)
	require.NoError(t, a.Kickout(ctx, "10001"))
	assert.Contains(t, rec.seen, "kickout")

	rec.seen = nil
	tok, err = a.Login(ctx, "10001")
	require.NoError(t, err)
	require.NoError(t, a.OpenSafe(ctx, tok, "pay", 60))
	require.NoError(t, a.CloseSafe(ctx, tok, "pay"))
	require.NoError(t, a.RenewTimeout(ctx, tok, 600))
	require.NoError(t, a.Disable(ctx, "10002", 60))
	require.NoError(t, a.UntieDisable(ctx, "10002", DefaultDisableService))
	assert.Subset(t, rec.seen, []string{"open-safe", "close-safe", "renew", "disable", "untie-disable"})
}

func TestReplacedEventOnExclusiveLogin(t *testing.T) {
	ctx := context.Background()
	rec := &recordingListener{}
	a := newTestAuthority(t, WithConfig(exclusiveConfig()), WithListener(rec))

	_, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	rec.seen = nil
	_, err = a.Login(ctx, "10001")
	require.NoError(t, err)
	assert.Contains(t, rec.seen, "replaced")
	assert.Contains(t, rec.seen, "login")
}

func TestListenersFireInOrder(t *testing.T) {
	ctx := context.Background()
	first := &recordingListener{}
	second := &recordingListener{}
	a := newTestAuthority(t, WithListener(first), WithListener(second))

	_, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, first.seen, second.seen)
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	ctx := context.Background()
	rec := &recordingListener{}
	a := newTestAuthority(t, WithListener(panicListener{}), WithListener(rec))

	tok, err := a.Login(ctx, "10001")
	require.NoError(t, err)
	assert.NoError(t, a.CheckLogin(ctx, tok))

	// The listener after the panicking one still ran.
	assert.Contains(t, rec.seen, "login")
}
