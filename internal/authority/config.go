package authority

import (
	sharedConfig "github.com/orris-inc/tokengate/internal/shared/config"
	"github.com/orris-inc/tokengate/internal/token"
)

// Overflow eviction modes for accounts past MaxLoginCount.
const (
	OverflowLogout  = "logout"
	OverflowKickout = "kickout"
	OverflowReplace = "replace"
)

// Ranges for the forced replace that a non-concurrent login performs.
const (
	ReplacedRangeCurrDevice = "curr-device"
	ReplacedRangeAllDevice  = "all-device"
)

// DefaultDeviceType is used when a login does not name its device.
const DefaultDeviceType = "default-device"

// DefaultDisableService is the service tag of the whole-account ban.
const DefaultDisableService = "login"

// DefaultSafeService is the service tag of the generic step-up marker.
const DefaultSafeService = "important"

// Config is the per-namespace engine configuration. It is read-mostly and
// set once at construction; the engine never mutates it afterwards.
type Config struct {
	TokenName                  string
	Timeout                    int64
	ActiveTimeout              int64
	Concurrent                 bool
	Share                      bool
	MaxLoginCount              int
	OverflowLogoutMode         string
	ReplacedRange              string
	MaxTryTimes                int
	TokenStyle                 string
	JWTSecret                  string
	AutoRenew                  bool
	TokenPrefix                string
	TokenSessionCheckLogin     bool
	RightNowCreateTokenSession bool
}

// DefaultConfig returns the documented defaults: 30-day tokens, no freeze
// tracking, concurrent shared logins capped at 12 devices.
func DefaultConfig() *Config {
	return &Config{
		TokenName:              "tokengate",
		Timeout:                30 * 24 * 60 * 60,
		ActiveTimeout:          -1,
		Concurrent:             true,
		Share:                  true,
		MaxLoginCount:          12,
		OverflowLogoutMode:     OverflowLogout,
		ReplacedRange:          ReplacedRangeCurrDevice,
		MaxTryTimes:            12,
		TokenStyle:             token.StyleUUID,
		AutoRenew:              true,
		TokenSessionCheckLogin: true,
	}
}

// ConfigFromShared converts the loaded application config into an engine
// config, backfilling defaults for zero values.
func ConfigFromShared(c sharedConfig.AuthConfig) *Config {
	cfg := DefaultConfig()
	if c.TokenName != "" {
		cfg.TokenName = c.TokenName
	}
	if c.Timeout != 0 {
		cfg.Timeout = c.Timeout
	}
	if c.ActiveTimeout != 0 {
		cfg.ActiveTimeout = c.ActiveTimeout
	}
	cfg.Concurrent = c.Concurrent
	cfg.Share = c.Share
	if c.MaxLoginCount != 0 {
		cfg.MaxLoginCount = c.MaxLoginCount
	}
	if c.OverflowLogoutMode != "" {
		cfg.OverflowLogoutMode = c.OverflowLogoutMode
	}
	if c.MaxTryTimes != 0 {
		cfg.MaxTryTimes = c.MaxTryTimes
	}
	if c.TokenStyle != "" {
		cfg.TokenStyle = c.TokenStyle
	}
	cfg.JWTSecret = c.JWTSecret
	cfg.AutoRenew = c.AutoRenew
	cfg.TokenPrefix = c.TokenPrefix
	cfg.TokenSessionCheckLogin = c.TokenSessionCheckLogin
	cfg.RightNowCreateTokenSession = c.RightNowCreateTokenSession
	return cfg
}
