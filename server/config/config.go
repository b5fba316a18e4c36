package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	AddrKey            = "addr"
	StaticDirKey       = "static_dir"
	AccessCodeKey      = "access_code"
	HistoryLimitKey    = "history_limit"
	QueueSizeKey       = "queue_size"
	MaxMessageBytesKey = "max_message_bytes"
	ArchiveDSNKey      = "archive_dsn"
	ArchiveLimitKey    = "archive_limit"
	PingPeriodKey      = "ping_period"
	PongWaitKey        = "pong_wait"
	WriteWaitKey       = "write_wait"
	VerboseKey         = "verbose"
	TrustProxyKey      = "trust_proxy"

	EnvPrefix = "LANSHARE"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr            string
	StaticDir       string
	AccessCode      string
	HistoryLimit    int
	QueueSize       int
	MaxMessageBytes int64
	// ArchiveDSN is handed to sqlite; empty disables the archive.
	ArchiveDSN   string
	ArchiveLimit int
	PingPeriod   time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	Verbose      bool
	// TrustProxy takes client addresses from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// SetDefaults registers every key on v so env variables and config files are
// picked up even for keys without a flag.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(AddrKey, ":8080")
	v.SetDefault(StaticDirKey, "")
	v.SetDefault(AccessCodeKey, "")
	v.SetDefault(HistoryLimitKey, 500)
	v.SetDefault(QueueSizeKey, 256)
	v.SetDefault(MaxMessageBytesKey, 1<<20)
	v.SetDefault(ArchiveDSNKey, ":memory:")
	v.SetDefault(ArchiveLimitKey, 10000)
	v.SetDefault(PingPeriodKey, 30*time.Second)
	v.SetDefault(PongWaitKey, 60*time.Second)
	v.SetDefault(WriteWaitKey, 10*time.Second)
	v.SetDefault(VerboseKey, false)
	v.SetDefault(TrustProxyKey, false)
}

// Load reads the optional config file and the environment into a Config.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	cfg := Config{
		Addr:            v.GetString(AddrKey),
		StaticDir:       v.GetString(StaticDirKey),
		AccessCode:      v.GetString(AccessCodeKey),
		HistoryLimit:    v.GetInt(HistoryLimitKey),
		QueueSize:       v.GetInt(QueueSizeKey),
		MaxMessageBytes: v.GetInt64(MaxMessageBytesKey),
		ArchiveDSN:      v.GetString(ArchiveDSNKey),
		ArchiveLimit:    v.GetInt(ArchiveLimitKey),
		PingPeriod:      v.GetDuration(PingPeriodKey),
		PongWait:        v.GetDuration(PongWaitKey),
		WriteWait:       v.GetDuration(WriteWaitKey),
		Verbose:         v.GetBool(VerboseKey),
		TrustProxy:      v.GetBool(TrustProxyKey),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%s is empty: %w", AddrKey, ErrInvalidConfig)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%s must be positive, got %d: %w", HistoryLimitKey, c.HistoryLimit, ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%s must be positive, got %d: %w", QueueSizeKey, c.QueueSize, ErrInvalidConfig)
	case c.MaxMessageBytes <= 0:
		return fmt.Errorf("%s must be positive, got %d: %w", MaxMessageBytesKey, c.MaxMessageBytes, ErrInvalidConfig)
	case c.ArchiveLimit < 0:
		return fmt.Errorf("%s must not be negative, got %d: %w", ArchiveLimitKey, c.ArchiveLimit, ErrInvalidConfig)
	case c.PingPeriod <= 0 || c.PongWait <= c.PingPeriod:
		return fmt.Errorf("%s (%s) must be positive and shorter than %s (%s): %w",
			PingPeriodKey, c.PingPeriod, PongWaitKey, c.PongWait, ErrInvalidConfig)
	case c.WriteWait <= 0:
		return fmt.Errorf("%s must be positive: %w", WriteWaitKey, ErrInvalidConfig)
	}
	return nil
}

// NewLogger builds the production JSON logger, at debug level when verbose.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
