// config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the join service.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	R2       R2Config
	NATS     NATSConfig
	Session  SessionConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	JWTSecret      string // optional; when empty bearer tokens are only decoded, never verified
}

// BackendConfig points at the remote tournament API.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

// R2Config is used for organizer thumbnail uploads. Uploads are disabled when AccountID is empty.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	CDNBaseURL      string
}

// NATSConfig enables lifecycle event publishing when URL is set.
type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type SessionConfig struct {
	PaymentWindow time.Duration
	IdleTTL       time.Duration
	SyncInterval  time.Duration
	MirrorMaxAge  time.Duration
	DefaultsURL   string // base URL for default tournament thumbnails
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			AllowedOrigins: splitOrigins(v.GetString("server.allowed_origins")),
			JWTSecret:      v.GetString("server.jwt_secret"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("backend.base_url"), "/"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			AccessKeySecret: v.GetString("r2.access_key_secret"),
			BucketName:      v.GetString("r2.bucket_name"),
			CDNBaseURL:      strings.TrimRight(v.GetString("r2.cdn_base_url"), "/"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("nats.url"),
			MaxReconnect:  v.GetInt("nats.max_reconnect"),
			ReconnectWait: v.GetDuration("nats.reconnect_wait"),
			Timeout:       v.GetDuration("nats.timeout"),
		},
		Session: SessionConfig{
			PaymentWindow: v.GetDuration("session.payment_window"),
			IdleTTL:       v.GetDuration("session.idle_ttl"),
			SyncInterval:  v.GetDuration("session.sync_interval"),
			MirrorMaxAge:  v.GetDuration("session.mirror_max_age"),
			DefaultsURL:   strings.TrimRight(v.GetString("session.defaults_url"), "/"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5300)
	v.SetDefault("server.allowed_origins", "http://localhost:3000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("nats.max_reconnect", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.timeout", 5*time.Second)
	v.SetDefault("session.payment_window", 600*time.Second)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sync_interval", 2*time.Minute)
	v.SetDefault("session.mirror_max_age", 5*time.Minute)
	v.SetDefault("session.defaults_url", "/images/tournaments")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL environment variable is not set")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Session.PaymentWindow < time.Second {
		return fmt.Errorf("SESSION_PAYMENT_WINDOW must be at least 1s, got %v", c.Session.PaymentWindow)
	}
	return nil
}

// R2Enabled reports whether thumbnail uploads are configured.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.BucketName != ""
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
