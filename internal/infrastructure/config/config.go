package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/tokengate/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Storage  sharedConfig.StorageConfig  `mapstructure:"storage"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Auth     sharedConfig.AuthConfig     `mapstructure:"auth"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("TOKENGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional: defaults plus environment variables are a
		// complete configuration for the memory backend.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Storage defaults
	viper.SetDefault("storage.backend", "memory")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "tokengate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Auth defaults
	viper.SetDefault("auth.token_name", "tokengate")
	viper.SetDefault("auth.timeout", 60*60*24*30)
	viper.SetDefault("auth.active_timeout", -1)
	viper.SetDefault("auth.concurrent", true)
	viper.SetDefault("auth.share", true)
	viper.SetDefault("auth.max_login_count", 12)
	viper.SetDefault("auth.overflow_logout_mode", "logout")
	viper.SetDefault("auth.max_try_times", 12)
	viper.SetDefault("auth.token_style", "uuid")
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.auto_renew", true)
	viper.SetDefault("auth.token_prefix", "")
	viper.SetDefault("auth.token_session_check_login", true)
	viper.SetDefault("auth.right_now_create_token_session", false)
	viper.SetDefault("auth.sweep_interval", 30)
}
