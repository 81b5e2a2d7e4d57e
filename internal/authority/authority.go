// Package authority implements the token authority engine: the token
// lifecycle state machine, the two session kinds it manages, the ban ladder
// and step-up auth, all on top of the pluggable storage contract.
//
// One Authority instance serves one identity namespace (login type). The
// instance holds no mutable state of its own beyond configuration; the store
// is the only shared resource, which makes the engine safe for parallel use
// from many request-handling goroutines.
package authority

import (
	"fmt"
	"strings"
	"time"

	"github.com/orris-inc/tokengate/internal/session"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/storage"
	"github.com/orris-inc/tokengate/internal/token"
)

// Authority is the session/token authority for a single login type.
type Authority struct {
	loginType string
	cfg       *Config
	store     storage.Storage
	sessions  *session.Repository
	ds        DataSource
	mint      token.Generator
	listeners []Listener
	log       logger.Interface
	locks     keyedMutex

	// condSet is non-nil when the store can write set-if-absent, which
	// closes the mint check-then-act race.
	condSet storage.ConditionalSetter

	now func() time.Time // overridable in tests
}

// Option configures an Authority during construction.
type Option func(*Authority)

// WithConfig replaces the default engine configuration.
func WithConfig(cfg *Config) Option {
	return func(a *Authority) { a.cfg = cfg }
}

// WithDataSource injects the external role/permission/ban authority.
func WithDataSource(ds DataSource) Option {
	return func(a *Authority) { a.ds = ds }
}

// WithLogger injects a logger; the default discards everything.
func WithLogger(log logger.Interface) Option {
	return func(a *Authority) { a.log = log }
}

// WithListener appends a lifecycle listener. Listeners fire in registration order.
func WithListener(l Listener) Option {
	return func(a *Authority) { a.listeners = append(a.listeners, l) }
}

// WithTokenGenerator replaces the style-derived token generator.
func WithTokenGenerator(gen token.Generator) Option {
	return func(a *Authority) { a.mint = gen }
}

// New builds an Authority for loginType on top of store.
func New(loginType string, store storage.Storage, opts ...Option) (*Authority, error) {
	if loginType == "" {
		return nil, fmt.Errorf("login type must not be empty")
	}
	a := &Authority{
		loginType: loginType,
		cfg:       DefaultConfig(),
		store:     store,
		sessions:  session.NewRepository(store),
		ds:        NopDataSource{},
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.mint == nil {
		gen, err := token.ForStyle(a.cfg.TokenStyle, a.cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		a.mint = gen
	}
	if cs, ok := store.(storage.ConditionalSetter); ok {
		a.condSet = cs
	}
	a.log = a.log.Named("authority").With("login_type", loginType)
	return a, nil
}

// LoginType returns the identity namespace this instance serves.
func (a *Authority) LoginType() string {
	return a.loginType
}

// Config returns the engine configuration. Callers must treat it as read-only.
func (a *Authority) Config() *Config {
	return a.cfg
}

func (a *Authority) nowMilli() int64 {
	return a.now().UnixMilli()
}

// Key builders. Layout:
//
//	<ns>:<loginType>:token:<token>
//	<ns>:<loginType>:session:<loginId>
//	<ns>:<loginType>:token-session:<token>
//	<ns>:<loginType>:last-active:<token>
//	<ns>:<loginType>:disable:<service>:<loginId>
//	<ns>:<loginType>:safe:<service>:<token>
//	<ns>:raw-session:<type>:<valueId>

func (a *Authority) tokenKey(tokenValue string) string {
	return a.cfg.TokenName + ":" + a.loginType + ":token:" + tokenValue
}

func (a *Authority) tokenKeyPrefix() string {
	return a.cfg.TokenName + ":" + a.loginType + ":token:"
}

func (a *Authority) sessionKey(loginID string) string {
	return a.cfg.TokenName + ":" + a.loginType + ":session:" + loginID
}

func (a *Authority) sessionKeyPrefix() string {
	return a.cfg.TokenName + ":" + a.loginType + ":session:"
}

func (a *Authority) tokenSessionKey(tokenValue string) string {
	return a.cfg.TokenName + ":" + a.loginType + ":token-session:" + tokenValue
}

func (a *Authority) lastActiveKey(tokenValue string) string {
	return a.cfg.TokenName + ":" + a.loginType + ":last-active:" + tokenValue
}

func (a *Authority) disableKey(service, loginID string) string {
	return a.cfg.TokenName + ":" + a.loginType + ":disable:" + service + ":" + loginID
}

func (a *Authority) safeKey(service, tokenValue string) string {
	return a.cfg.TokenName + ":" + a.loginType + ":safe:" + service + ":" + tokenValue
}

func (a *Authority) rawSessionKey(sessionType, valueID string) string {
	return a.cfg.TokenName + ":raw-session:" + sessionType + ":" + valueID
}

// WrapPrefix renders a bare token the way a client must present it,
// applying the configured token prefix when one is set.
func (a *Authority) WrapPrefix(tokenValue string) string {
	if a.cfg.TokenPrefix == "" || tokenValue == "" {
		return tokenValue
	}
	return a.cfg.TokenPrefix + " " + tokenValue
}

// UnwrapPrefix strips the configured token prefix from a presented
// credential. With no prefix configured the credential passes through
// untouched. A configured prefix that is missing or malformed yields the
// dedicated no-prefix not-logged-in reason via CheckLogin.
func (a *Authority) UnwrapPrefix(presented string) (string, bool) {
	if a.cfg.TokenPrefix == "" {
		return presented, true
	}
	if presented == "" {
		return "", true
	}
	want := a.cfg.TokenPrefix + " "
	if !strings.HasPrefix(presented, want) {
		return "", false
	}
	return strings.TrimPrefix(presented, want), true
}
