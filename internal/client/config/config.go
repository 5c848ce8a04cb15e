package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the photosync CLI.
//
// Fields:
//   - ServerURL: base URL of the gallery API.
//   - AlbumDir: directory scanned for local photos.
//   - DatabasePath: SQLite file holding the upload ledger.
//   - UserID / AccessToken: identity sent to the gallery API.
//   - MetadataTimeout / TransferTimeout: per-call bounds for API calls and
//     byte transfers.
//   - TransferAttempts: tries per transfer, including the first one.
//   - MaxWidth / MaxHeight / JPEGQuality: re-encoding parameters.
//   - Concurrency: parallel materializations.
type Config struct {
	ServerURL        string
	AlbumDir         string
	DatabasePath     string
	UserID           string
	AccessToken      string
	MetadataTimeout  time.Duration
	TransferTimeout  time.Duration
	TransferAttempts int
	MaxWidth         int
	MaxHeight        int
	JPEGQuality      int
	Concurrency      int
	Verbose          bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.AlbumDir = "."
	c.DatabasePath = "photosync.db"
	c.MetadataTimeout = 30 * time.Second
	c.TransferTimeout = 5 * time.Minute
	c.TransferAttempts = 3
	c.MaxWidth = 1920
	c.MaxHeight = 1080
	c.JPEGQuality = 80
	c.Concurrency = 4
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server url %q must be an absolute http(s) url", c.ServerURL))
	}
	if c.AlbumDir == "" {
		errs = append(errs, errors.New("album dir is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.MetadataTimeout <= 0 || c.TransferTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.TransferAttempts < 1 {
		errs = append(errs, errors.New("transfer attempts must be at least 1"))
	}
	if c.MaxWidth < 1 || c.MaxHeight < 1 {
		errs = append(errs, errors.New("max width and height must be positive"))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality %d out of range 1..100", c.JPEGQuality))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
