package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/photosync/internal/flagx"
	"github.com/dmitrijs2005/photosync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key apart from a zero value.
type JsonConfig struct {
	ServerURL        *string         `json:"server_url"`
	AlbumDir         *string         `json:"album_dir"`
	DatabasePath     *string         `json:"database_path"`
	UserID           *string         `json:"user_id"`
	AccessToken      *string         `json:"access_token"`
	MetadataTimeout  *timex.Duration `json:"metadata_timeout"`
	TransferTimeout  *timex.Duration `json:"transfer_timeout"`
	TransferAttempts *int            `json:"transfer_attempts"`
	MaxWidth         *int            `json:"max_width"`
	MaxHeight        *int            `json:"max_height"`
	JPEGQuality      *int            `json:"jpeg_quality"`
	Concurrency      *int            `json:"concurrency"`
	Verbose          *bool           `json:"verbose"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (jc *JsonConfig) apply(cfg *Config) {
	setIf(&cfg.ServerURL, jc.ServerURL)
	setIf(&cfg.AlbumDir, jc.AlbumDir)
	setIf(&cfg.DatabasePath, jc.DatabasePath)
	setIf(&cfg.UserID, jc.UserID)
	setIf(&cfg.AccessToken, jc.AccessToken)
	if jc.MetadataTimeout != nil {
		cfg.MetadataTimeout = jc.MetadataTimeout.Duration
	}
	if jc.TransferTimeout != nil {
		cfg.TransferTimeout = jc.TransferTimeout.Duration
	}
	setIf(&cfg.TransferAttempts, jc.TransferAttempts)
	setIf(&cfg.MaxWidth, jc.MaxWidth)
	setIf(&cfg.MaxHeight, jc.MaxHeight)
	setIf(&cfg.JPEGQuality, jc.JPEGQuality)
	setIf(&cfg.Concurrency, jc.Concurrency)
	setIf(&cfg.Verbose, jc.Verbose)
}

// parseJSON overlays cfg with the JSON file named by -c/-config, if any.
func parseJSON(cfg *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}
	return loadJSONFile(cfg, path)
}

func loadJSONFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}
