package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Store:         "memory",
		OpenHour:      9,
		CloseHour:     21,
		SlotMinutes:   60,
		Timezone:      "UTC",
		MaxRoundTrips: 8,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 9, cfg.OpenHour)
	assert.Equal(t, 21, cfg.CloseHour)
	assert.Equal(t, 60, cfg.SlotMinutes)
	assert.Equal(t, "RM", cfg.Currency)
	assert.Equal(t, 30*time.Second, cfg.ReasoningTimeout)
	assert.Equal(t, 8, cfg.MaxRoundTrips)
	assert.Equal(t, "memory", cfg.Store)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("OPEN_HOUR", "8")
	t.Setenv("CLOSE_HOUR", "20")
	t.Setenv("CURRENCY", "USD")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.OpenHour)
	assert.Equal(t, 20, cfg.CloseHour)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"inverted window", func(c *Config) { c.OpenHour, c.CloseHour = 21, 9 }, true},
		{"close past midnight", func(c *Config) { c.CloseHour = 25 }, true},
		{"slot does not divide", func(c *Config) { c.SlotMinutes = 50 }, true},
		{"half hour slots", func(c *Config) { c.SlotMinutes = 30 }, false},
		{"zero round trips", func(c *Config) { c.MaxRoundTrips = 0 }, true},
		{"unknown store", func(c *Config) { c.Store = "mongo" }, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
