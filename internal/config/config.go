// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Archive backends.
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveGCS   = "gcs"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Site    SiteConfig    `mapstructure:"site"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                   string `mapstructure:"dsn"`
	MaxConns              int32  `mapstructure:"max_conns"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// SiteConfig describes the roster site and how requests identify themselves.
type SiteConfig struct {
	ListingURLTemplate string            `mapstructure:"listing_url_template"`
	Letters            string            `mapstructure:"letters"`
	UserAgent          string            `mapstructure:"user_agent"`
	Headers            map[string]string `mapstructure:"headers"`
	RespectRobots      bool              `mapstructure:"respect_robots"`
	TimeoutSeconds     int               `mapstructure:"timeout_seconds"`
	RequestsPerMinute  float64           `mapstructure:"requests_per_minute"`
}

// PacingConfig bounds the random delay between fetches.
type PacingConfig struct {
	MinSeconds float64 `mapstructure:"min_seconds"`
	MaxSeconds float64 `mapstructure:"max_seconds"`
}

// ArchiveConfig selects where fetched pages are kept.
type ArchiveConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig controls the metrics and health listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("db.dsn", "ROSTER_DB_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind db.dsn: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.max_conns", 1)
	v.SetDefault("db.connect_timeout_seconds", 10)
	v.SetDefault("site.listing_url_template", "https://www.baseball-reference.com/players/{letter}/")
	v.SetDefault("site.letters", "a-z")
	v.SetDefault("site.respect_robots", false)
	v.SetDefault("site.timeout_seconds", 30)
	v.SetDefault("site.requests_per_minute", 60)
	v.SetDefault("pacing.min_seconds", 1.5)
	v.SetDefault("pacing.max_seconds", 4.0)
	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.base_dir", "data/pages")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. The DSN is checked by RequireDSN since
// not every command needs the database.
func (c Config) Validate() error {
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("db.max_conns must be > 0")
	}
	if c.DB.ConnectTimeoutSeconds <= 0 {
		return fmt.Errorf("db.connect_timeout_seconds must be > 0")
	}
	if !strings.Contains(c.Site.ListingURLTemplate, "{letter}") {
		return fmt.Errorf("site.listing_url_template must contain {letter}")
	}
	u, err := url.Parse(strings.ReplaceAll(c.Site.ListingURLTemplate, "{letter}", "a"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.listing_url_template must be an absolute URL")
	}
	if c.Site.TimeoutSeconds <= 0 {
		return fmt.Errorf("site.timeout_seconds must be > 0")
	}
	if c.Site.RequestsPerMinute < 0 {
		return fmt.Errorf("site.requests_per_minute must be >= 0")
	}
	if c.Pacing.MinSeconds < 0 {
		return fmt.Errorf("pacing.min_seconds must be >= 0")
	}
	if c.Pacing.MaxSeconds < c.Pacing.MinSeconds {
		return fmt.Errorf("pacing.max_seconds must be >= pacing.min_seconds")
	}
	switch c.Archive.Backend {
	case ArchiveNone:
	case ArchiveLocal:
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set when archive.backend is local")
		}
	case ArchiveGCS:
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.backend is gcs")
		}
	default:
		return fmt.Errorf("archive.backend must be one of none, local, gcs")
	}
	return nil
}

// RequireDSN reports an error when no database connection string is configured.
func (c Config) RequireDSN() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("db.dsn must be set (or DATABASE_URL)")
	}
	return nil
}

// SiteBase returns the scheme and host of the listing URL template.
func (c Config) SiteBase() string {
	u, err := url.Parse(strings.ReplaceAll(c.Site.ListingURLTemplate, "{letter}", "a"))
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// HTTPHeaders converts the configured headers into an http.Header.
func (c Config) HTTPHeaders() http.Header {
	h := http.Header{}
	for k, v := range c.Site.Headers {
		h.Set(k, v)
	}
	return h
}

// FetchTimeout is the per-request timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Site.TimeoutSeconds) * time.Second
}

// ConnectTimeout bounds the initial database connection.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.DB.ConnectTimeoutSeconds) * time.Second
}

// PacingBounds converts the pacing window into durations.
func (c Config) PacingBounds() (time.Duration, time.Duration) {
	return seconds(c.Pacing.MinSeconds), seconds(c.Pacing.MaxSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
