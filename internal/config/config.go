package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type EngineConfig struct {
	SightingCooldown time.Duration
	SessionTimeout   time.Duration
	SweepInterval    time.Duration
}

type RegistryConfig struct {
	ServiceURL    string
	InternalToken string
	Timeout       time.Duration
}

type NATSConfig struct {
	Port int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Engine      EngineConfig
	Registry    RegistryConfig
	NATS        NATSConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Engine: EngineConfig{
			SightingCooldown: v.GetDuration("SIGHTING_COOLDOWN"),
			SessionTimeout:   v.GetDuration("SESSION_TIMEOUT"),
			SweepInterval:    v.GetDuration("SWEEP_INTERVAL"),
		},
		Registry: RegistryConfig{
			ServiceURL:    v.GetString("REGISTRY_SERVICE_URL"),
			InternalToken: v.GetString("REGISTRY_INTERNAL_TOKEN"),
			Timeout:       v.GetDuration("REGISTRY_TIMEOUT"),
		},
		NATS: NATSConfig{
			Port: v.GetInt("NATS_PORT"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Engine.SightingCooldown == 0 {
		cfg.Engine.SightingCooldown = 10 * time.Second
	}
	if cfg.Engine.SessionTimeout == 0 {
		cfg.Engine.SessionTimeout = 30 * time.Minute
	}
	if cfg.Engine.SweepInterval == 0 {
		cfg.Engine.SweepInterval = time.Minute
	}
	if cfg.Registry.Timeout == 0 {
		cfg.Registry.Timeout = 3 * time.Second
	}
	if cfg.NATS.Port == 0 {
		cfg.NATS.Port = 4222
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Engine.SessionTimeout <= cfg.Engine.SightingCooldown {
		return fmt.Errorf("SESSION_TIMEOUT must be longer than SIGHTING_COOLDOWN")
	}
	return nil
}
