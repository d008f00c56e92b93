package config

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/internal/components/chrono"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/export"
	"bunker-backend/internal/scrapers/ecampus"
	"bunker-backend/internal/sessionstore"
	"bunker-backend/lib/configutil"
	"fmt"
	"path/filepath"
	"time"
)

const (
	DefaultPort      = 5000
	DefaultPurgeCron = "0 * * * *"
	DefaultWatchCron = "0 8 * * 1-5"
)

type PortalConfig struct {
	BaseUrl           string  `json:"base_url" yaml:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass" yaml:"cloudflare_bypass"`
}

func (c PortalConfig) ClientOptions() ecampus.ClientOptions {
	return ecampus.ClientOptions{
		BaseUrl:           c.BaseUrl,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
	}
}

type CredentialsConfig struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

type ServerConfig struct {
	Port         int    `json:"port" yaml:"port"`
	CookieName   string `json:"cookie_name" yaml:"cookie_name"`
	SecureCookie bool   `json:"secure_cookie" yaml:"secure_cookie"`
}

type SessionsConfig struct {
	Database      sessionstore.Config `json:"database" yaml:"database"`
	LifetimeHours int                 `json:"lifetime_hours" yaml:"lifetime_hours"`
	// PurgeCron is when expired sessions are deleted.
	PurgeCron string `json:"purge_cron" yaml:"purge_cron"`
}

func (c SessionsConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeHours) * time.Hour
}

type WatchConfig struct {
	Cron string `json:"cron" yaml:"cron"`
}

type Config struct {
	Portal      PortalConfig        `json:"portal" yaml:"portal"`
	Credentials CredentialsConfig   `json:"credentials" yaml:"credentials"`
	Threshold   float64             `json:"threshold" yaml:"threshold"`
	Server      ServerConfig        `json:"server" yaml:"server"`
	Sessions    SessionsConfig      `json:"sessions" yaml:"sessions"`
	Periods     []export.PeriodTime `json:"periods" yaml:"periods"`
	Watch       WatchConfig         `json:"watch" yaml:"watch"`
	Telemetry   telemetry.Config    `json:"telemetry" yaml:"telemetry"`
}

// Defaults fills in every unset field.
func (c *Config) Defaults() {
	if c.Threshold == 0 {
		c.Threshold = bunk.DefaultThreshold
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Sessions.LifetimeHours == 0 {
		c.Sessions.LifetimeHours = int(sessionstore.DefaultLifetime / time.Hour)
	}
	if c.Sessions.PurgeCron == "" {
		c.Sessions.PurgeCron = DefaultPurgeCron
	}
	if c.Sessions.Database.File == "" && c.Sessions.Database.Url == "" {
		c.Sessions.Database.File = "sessions.db"
	}
	if c.Watch.Cron == "" {
		c.Watch.Cron = DefaultWatchCron
	}
}

func (c Config) Validate() error {
	_, err := bunk.ComputeChecked(0, 0, 0, c.Threshold)
	if err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Sessions.LifetimeHours < 0 {
		return fmt.Errorf("negative session lifetime %d", c.Sessions.LifetimeHours)
	}
	err = chrono.ValidateSpec(c.Sessions.PurgeCron)
	if err != nil {
		return fmt.Errorf("sessions purge cron: %w", err)
	}
	err = chrono.ValidateSpec(c.Watch.Cron)
	if err != nil {
		return fmt.Errorf("watch cron: %w", err)
	}
	return nil
}

// Load reads the config file at name (merged with its .local variant), fills in the
// defaults and validates the result. A bare file name is looked up in the working
// directory and then in each of its parents.
func Load(name string) (Config, error) {
	read := configutil.ReadConfig[Config]
	if filepath.Base(name) == name {
		read = configutil.ReadRecursively[Config]
	}
	cfg, err := read(name)
	if err != nil {
		return Config{}, err
	}
	cfg.Defaults()
	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}
