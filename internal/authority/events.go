package authority

import (
	"fmt"
	"runtime/debug"
)

// Listener receives fire-and-forget lifecycle notifications. Listeners are
// called synchronously in registration order; a panicking listener is
// isolated and logged, it never breaks the operation that fired the event.
// Correctness must never depend on a listener running.
type Listener interface {
	DoLogin(loginType, loginID, tokenValue string, opts LoginOptions)
	DoLogout(loginType, loginID, tokenValue string)
	DoKickout(loginType, loginID, tokenValue string)
	DoReplaced(loginType, loginID, tokenValue string)
	DoDisable(loginType, loginID, service string, level int, ttl int64)
	DoUntieDisable(loginType, loginID, service string)
	DoOpenSafe(loginType, tokenValue, service string, ttl int64)
	DoCloseSafe(loginType, tokenValue, service string)
	DoCreateSession(id string)
	DoLogoutSession(id string)
	DoRenewTimeout(loginType, tokenValue string, ttl int64)
}

// NopListener implements Listener with empty methods; embed it to listen to a
// subset of events.
type NopListener struct{}

func (NopListener) DoLogin(loginType, loginID, tokenValue string, opts LoginOptions)   {}
func (NopListener) DoLogout(loginType, loginID, tokenValue string)                     {}
func (NopListener) DoKickout(loginType, loginID, tokenValue string)                    {}
func (NopListener) DoReplaced(loginType, loginID, tokenValue string)                   {}
func (NopListener) DoDisable(loginType, loginID, service string, level int, ttl int64) {}
func (NopListener) DoUntieDisable(loginType, loginID, service string)                  {}
func (NopListener) DoOpenSafe(loginType, tokenValue, service string, ttl int64)        {}
func (NopListener) DoCloseSafe(loginType, tokenValue, service string)                  {}
func (NopListener) DoCreateSession(id string)                                          {}
func (NopListener) DoLogoutSession(id string)                                          {}
func (NopListener) DoRenewTimeout(loginType, tokenValue string, ttl int64)             {}

// notify runs fn for every registered listener, recovering panics per
// listener so one bad observer cannot take down the engine.
func (a *Authority) notify(event string, fn func(l Listener)) {
	for _, l := range a.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("event listener panicked",
						"event", event,
						"panic", fmt.Sprintf("%v", r),
						"stack", string(debug.Stack()),
					)
				}
			}()
			fn(l)
		}()
	}
}
