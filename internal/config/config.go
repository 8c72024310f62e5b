package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the merged configuration for the backend and the dashboard.
type Config struct {
	Port     string
	LogLevel string
	DBPath   string
	// AllowedOrigins are the browser origins granted CORS by the backend.
	AllowedOrigins []string
	Simulator      SimulatorConfig
	Dashboard      DashboardConfig
}

// SimulatorConfig controls the synthetic reading generator.
type SimulatorConfig struct {
	Enabled bool
	Tick    time.Duration
}

// DashboardConfig controls the dashboard client.
type DashboardConfig struct {
	BaseURL      string
	WSURL        string
	FetchTimeout time.Duration
	Retention    int
	ReseedOnLive bool
	Reconnect    ReconnectConfig
}

// ReconnectConfig enables backoff reconnects of the live feed.
type ReconnectConfig struct {
	Enabled bool
	Base    time.Duration
	Max     time.Duration
}

const envPrefix = "FRIDGE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("cors.origins", []string{"http://localhost:3000"})
	v.SetDefault("simulator.enabled", true)
	v.SetDefault("simulator.tick", time.Second)
	v.SetDefault("dashboard.base_url", "http://localhost:8080")
	v.SetDefault("dashboard.ws_url", "ws://localhost:8080/ws")
	v.SetDefault("dashboard.fetch_timeout", 5*time.Second)
	v.SetDefault("dashboard.retention", 100)
	v.SetDefault("dashboard.reseed_on_live", true)
	v.SetDefault("dashboard.reconnect.enabled", false)
	v.SetDefault("dashboard.reconnect.base", time.Second)
	v.SetDefault("dashboard.reconnect.max", 30*time.Second)
}

// Load reads configs/config.yml (or the file at path when non-empty), applies
// FRIDGE_* environment overrides and fills defaults. A missing default config
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		LogLevel:       v.GetString("log.level"),
		DBPath:         v.GetString("db.path"),
		AllowedOrigins: v.GetStringSlice("cors.origins"),
		Simulator: SimulatorConfig{
			Enabled: v.GetBool("simulator.enabled"),
			Tick:    v.GetDuration("simulator.tick"),
		},
		Dashboard: DashboardConfig{
			BaseURL:      v.GetString("dashboard.base_url"),
			WSURL:        v.GetString("dashboard.ws_url"),
			FetchTimeout: v.GetDuration("dashboard.fetch_timeout"),
			Retention:    v.GetInt("dashboard.retention"),
			ReseedOnLive: v.GetBool("dashboard.reseed_on_live"),
			Reconnect: ReconnectConfig{
				Enabled: v.GetBool("dashboard.reconnect.enabled"),
				Base:    v.GetDuration("dashboard.reconnect.base"),
				Max:     v.GetDuration("dashboard.reconnect.max"),
			},
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulator.Tick <= 0 {
		return fmt.Errorf("simulator.tick must be positive, got %v", c.Simulator.Tick)
	}
	if c.Dashboard.Retention <= 0 {
		return fmt.Errorf("dashboard.retention must be positive, got %d", c.Dashboard.Retention)
	}
	if c.Dashboard.FetchTimeout <= 0 {
		return fmt.Errorf("dashboard.fetch_timeout must be positive, got %v", c.Dashboard.FetchTimeout)
	}
	return nil
}
