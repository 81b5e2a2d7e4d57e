package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// StorageConfig selects which backend the token engine persists to.
// "memory" keeps everything in process, "redis" and "database" use the
// matching connection sections.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// AuthConfig holds every knob of the token authority engine.
// Zero values are replaced by the documented defaults in authority.DefaultConfig.
type AuthConfig struct {
	// TokenName is the key namespace prefix and the default header/cookie name.
	TokenName string `mapstructure:"token_name"`
	// Timeout is the hard token TTL in seconds; -1 means never expire.
	Timeout int64 `mapstructure:"timeout"`
	// ActiveTimeout is the allowed inactivity window in seconds before a token
	// is treated as frozen; -1 disables freeze tracking.
	ActiveTimeout int64 `mapstructure:"active_timeout"`
	// Concurrent allows the same account to be logged in from several devices
	// at once. When false a new login replaces the previous one.
	Concurrent bool `mapstructure:"concurrent"`
	// Share reuses an existing token when the same account logs in again from
	// the same device type (only meaningful when Concurrent is true).
	Share bool `mapstructure:"share"`
	// MaxLoginCount caps the number of live terminals per account; -1 removes
	// the cap. Oldest terminals are evicted past the cap.
	MaxLoginCount int `mapstructure:"max_login_count"`
	// OverflowLogoutMode selects how over-cap terminals are evicted:
	// "logout", "kickout" or "replace".
	OverflowLogoutMode string `mapstructure:"overflow_logout_mode"`
	// MaxTryTimes bounds the unique-token mint retry loop.
	MaxTryTimes int `mapstructure:"max_try_times"`
	// TokenStyle selects the mint style: uuid, simple-uuid, random-32,
	// random-64, random-128, tik or jwt.
	TokenStyle string `mapstructure:"token_style"`
	// JWTSecret signs minted tokens when TokenStyle is "jwt".
	JWTSecret string `mapstructure:"jwt_secret"`
	// AutoRenew slides the activity window forward on each successful check.
	AutoRenew bool `mapstructure:"auto_renew"`
	// TokenPrefix, when set, must precede every presented token ("<prefix> <token>").
	TokenPrefix string `mapstructure:"token_prefix"`
	// TokenSessionCheckLogin requires a live login before a token session may
	// be created on demand.
	TokenSessionCheckLogin bool `mapstructure:"token_session_check_login"`
	// RightNowCreateTokenSession creates the token session eagerly at login.
	RightNowCreateTokenSession bool `mapstructure:"right_now_create_token_session"`
	// SweepInterval is the background expiry sweep period in seconds for the
	// in-memory store; -1 disables the sweep.
	SweepInterval int64 `mapstructure:"sweep_interval"`
}
