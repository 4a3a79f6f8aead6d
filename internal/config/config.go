// Package config loads the backend configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "COFRINHO_"

// Config is the runtime configuration of the backend. It is read once
// at startup and treated as read-only afterwards.
type Config struct {
	// ListenAddress is the address the HTTP server binds to.
	ListenAddress string `koanf:"listen_address"`

	// DatabaseDSN is the sqlite DSN used when DB_HOST is not set.
	DatabaseDSN string `koanf:"database_dsn"`

	// DefaultCurrency is the currency assigned to accounts without one.
	DefaultCurrency string `koanf:"default_currency"`

	// SchedulerInterval is the regular scheduler tick interval.
	SchedulerInterval time.Duration `koanf:"scheduler_interval"`

	// SchedulerDailyTicks are extra daily catch-up ticks as a
	// comma-separated list of HH:MM times.
	SchedulerDailyTicks string `koanf:"scheduler_daily_ticks"`

	// SchedulerBatchSize bounds how many due items one tick claims.
	SchedulerBatchSize int `koanf:"scheduler_batch_size"`

	// OverBudgetTolerance is the fraction a planning may exceed its
	// target before a notification fires, e.g. 0.1 for 10%.
	OverBudgetTolerance float64 `koanf:"over_budget_tolerance"`

	// InviteLifetime is how long family invites stay valid.
	InviteLifetime time.Duration `koanf:"invite_lifetime"`
}

// Defaults returns the configuration defaults.
func Defaults() Config {
	return Config{
		ListenAddress:       ":8080",
		DatabaseDSN:         "data/cofrinho.db",
		DefaultCurrency:     "BRL",
		SchedulerInterval:   time.Hour,
		SchedulerDailyTicks: "08:00,20:00",
		SchedulerBatchSize:  100,
		OverBudgetTolerance: 0.1,
		InviteLifetime:      7 * 24 * time.Hour,
	}
}

// Load reads configuration from COFRINHO_* environment variables on
// top of the defaults, e.g. COFRINHO_SCHEDULER_INTERVAL=30m.
func Load() (Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("loading environment failed: %w", err)
	}

	cfg := Defaults()
	err = k.Unmarshal("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshaling configuration failed: %w", err)
	}

	return cfg, nil
}

// DailyTicks returns the configured catch-up tick times.
func (c Config) DailyTicks() []string {
	var ticks []string
	for _, tick := range strings.Split(c.SchedulerDailyTicks, ",") {
		tick = strings.TrimSpace(tick)
		if tick != "" {
			ticks = append(ticks, tick)
		}
	}
	return ticks
}
