package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campuscode/leetboard/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	SMTP    SMTPConfig    `yaml:"smtp" mapstructure:"smtp"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// SourcesConfig points at an optional stats-source override file.
// When File is empty the built-in source list is used.
type SourcesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// FetchConfig tunes the stats fetch pipeline.
type FetchConfig struct {
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries          int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffMs           []int   `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
	CacheTTLSecs        int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	PerHostRPS          float64 `yaml:"per_host_rps" mapstructure:"per_host_rps"`
}

// RefreshConfig controls the background roster refresh loop.
// An interval of 0 disables the loop.
type RefreshConfig struct {
	IntervalMins int `yaml:"interval_mins" mapstructure:"interval_mins"`
}

// ReportConfig controls weekly report generation.
type ReportConfig struct {
	Weekday               string `yaml:"weekday" mapstructure:"weekday"`
	Hour                  int    `yaml:"hour" mapstructure:"hour"`
	InconsistentThreshold int    `yaml:"inconsistent_threshold" mapstructure:"inconsistent_threshold"`
}

// SMTPConfig holds outgoing mail settings. When Host, Username,
// Password or To is empty, email delivery is skipped and reports are
// only saved to the dashboard.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
	To       string `yaml:"to" mapstructure:"to"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEETBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leetboard.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("sources.file", "")
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_ms", []int{200, 400, 800})
	v.SetDefault("fetch.concurrency", 30)
	v.SetDefault("fetch.breaker_threshold", 5)
	v.SetDefault("fetch.breaker_cooldown_secs", 300)
	v.SetDefault("fetch.cache_ttl_secs", 300)
	v.SetDefault("fetch.per_host_rps", 10)
	v.SetDefault("refresh.interval_mins", 30)
	v.SetDefault("report.weekday", "Monday")
	v.SetDefault("report.hour", 8)
	v.SetDefault("report.inconsistent_threshold", 5)
	v.SetDefault("smtp.port", 587)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can support the given run
// mode. Known modes: "serve", "refresh", "report".
func (c *Config) Validate(mode string) error {
	switch mode {
	case "serve", "refresh", "report":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Refresh.IntervalMins < 0 {
			problems = append(problems, "refresh.interval_mins must be >= 0")
		}
	}

	if mode == "serve" || mode == "refresh" {
		if c.Fetch.TimeoutSecs <= 0 {
			problems = append(problems, "fetch.timeout_secs must be > 0")
		}
		if c.Fetch.MaxRetries < 1 || c.Fetch.MaxRetries > 10 {
			problems = append(problems, "fetch.max_retries must be between 1 and 10")
		}
		if c.Fetch.Concurrency < 1 || c.Fetch.Concurrency > 100 {
			problems = append(problems, "fetch.concurrency must be between 1 and 100")
		}
		if c.Fetch.BreakerThreshold < 1 {
			problems = append(problems, "fetch.breaker_threshold must be >= 1")
		}
		if c.Fetch.BreakerCooldownSecs < 1 {
			problems = append(problems, "fetch.breaker_cooldown_secs must be >= 1")
		}
		if c.Fetch.PerHostRPS <= 0 {
			problems = append(problems, "fetch.per_host_rps must be > 0")
		}
	}

	if mode == "serve" || mode == "report" {
		if c.Report.InconsistentThreshold < 1 {
			problems = append(problems, "report.inconsistent_threshold must be >= 1")
		}
		if c.Report.Hour < 0 || c.Report.Hour > 23 {
			problems = append(problems, "report.hour must be between 0 and 23")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s mode: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
