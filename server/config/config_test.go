package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, int64(1<<20), cfg.MaxMessageBytes)
	assert.Equal(t, ":memory:", cfg.ArchiveDSN)
	assert.Equal(t, 30*time.Second, cfg.PingPeriod)
	assert.Empty(t, cfg.AccessCode)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_EnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanshare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: 127.0.0.1:9000\nhistory_limit: 20\nping_period: 5s\n"), 0o600))
	t.Setenv("LANSHARE_ACCESS_CODE", "secret")
	t.Setenv("LANSHARE_HISTORY_LIMIT", "30")
	t.Setenv("LANSHARE_TRUST_PROXY", "true")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "secret", cfg.AccessCode)
	assert.Equal(t, 30, cfg.HistoryLimit)
	assert.Equal(t, 5*time.Second, cfg.PingPeriod)
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Load(viper.New(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }},
		{name: "zero history", mutate: func(c *Config) { c.HistoryLimit = 0 }},
		{name: "zero queue", mutate: func(c *Config) { c.QueueSize = 0 }},
		{name: "zero frame cap", mutate: func(c *Config) { c.MaxMessageBytes = 0 }},
		{name: "negative archive limit", mutate: func(c *Config) { c.ArchiveLimit = -1 }},
		{name: "ping after pong deadline", mutate: func(c *Config) { c.PingPeriod = c.PongWait }},
		{name: "zero write wait", mutate: func(c *Config) { c.WriteWait = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}
