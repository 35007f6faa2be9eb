package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMysql    = "mysql"
	DriverSqlite   = "sqlite"
)

// Config is built once at process start and handed to every component that needs it.
type Config struct {
	Discord  DiscordConfig
	Security SecurityConfig
	Database DatabaseConfig
	HTTP     HTTPConfig
	Cache    CacheConfig
	Cron     CronConfig
	Debug    DebugConfig
}

type DiscordConfig struct {
	ApplicationID string
	PublicKey     string
	Token         string
	GuildID       string
}

type SecurityConfig struct {
	RequiredRoles []string
}

type DatabaseConfig struct {
	Driver         string
	DSN            string
	MaxIdleConns   int
	MaxOpenConns   int
	ConnectRetries int
}

type HTTPConfig struct {
	Bind               string
	InteractionTimeout time.Duration
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CronConfig struct {
	HealthCheck string
}

type DebugConfig struct {
	Database    bool
	PrintRoutes bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("http.bind", ":8444")
	v.SetDefault("http.interaction_timeout", 2500*time.Millisecond)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cron.health_check", "@every 5m")
}

// Load reads settings.toml from the working directory or its parent, with
// RENFIELD_* environment variables taking precedence. A .env file is honoured
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.SetEnvPrefix("renfield")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read settings: %v", err)
		}
	}

	return FromViper(v)
}

// FromViper maps an already populated viper instance onto a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Discord: DiscordConfig{
			ApplicationID: v.GetString("discord.application_id"),
			PublicKey:     v.GetString("discord.public_key"),
			Token:         v.GetString("discord.token"),
			GuildID:       v.GetString("discord.guild_id"),
		},
		Security: SecurityConfig{
			RequiredRoles: splitList(v.GetStringSlice("security.required_roles")),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("database.driver")),
			DSN:            v.GetString("database.dsn"),
			MaxIdleConns:   v.GetInt("database.max_idle_conns"),
			MaxOpenConns:   v.GetInt("database.max_open_conns"),
			ConnectRetries: v.GetInt("database.connect_retries"),
		},
		HTTP: HTTPConfig{
			Bind:               v.GetString("http.bind"),
			InteractionTimeout: v.GetDuration("http.interaction_timeout"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			TTL:     v.GetDuration("cache.ttl"),
		},
		Cron: CronConfig{
			HealthCheck: v.GetString("cron.health_check"),
		},
		Debug: DebugConfig{
			Database:    v.GetBool("debug.database"),
			PrintRoutes: v.GetBool("debug.print_routes"),
		},
	}

	switch cfg.Database.Driver {
	case DriverPostgres, DriverMysql, DriverSqlite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.HTTP.InteractionTimeout <= 0 {
		return nil, fmt.Errorf("http.interaction_timeout must be positive")
	}

	return cfg, nil
}

// splitList accepts both TOML arrays and the comma separated form used in
// environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
