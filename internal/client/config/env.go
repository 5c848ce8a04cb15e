package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEnvFile = ".env"
	envPrefix      = "PHOTOSYNC_"
)

type lookupFunc func(key string) (string, bool)

// envSource merges a dotenv file with the process environment; the process
// environment wins.
func envSource(envFile string) (lookupFunc, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

func parseEnv(cfg *Config, envFile string) error {
	lookup, err := envSource(envFile)
	if err != nil {
		return err
	}

	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("SERVER_URL", &cfg.ServerURL)
	str("ALBUM_DIR", &cfg.AlbumDir)
	str("DATABASE_PATH", &cfg.DatabasePath)
	str("USER_ID", &cfg.UserID)
	str("ACCESS_TOKEN", &cfg.AccessToken)
	dur("METADATA_TIMEOUT", &cfg.MetadataTimeout)
	dur("TRANSFER_TIMEOUT", &cfg.TransferTimeout)
	num("TRANSFER_ATTEMPTS", &cfg.TransferAttempts)
	num("MAX_WIDTH", &cfg.MaxWidth)
	num("MAX_HEIGHT", &cfg.MaxHeight)
	num("JPEG_QUALITY", &cfg.JPEGQuality)
	num("CONCURRENCY", &cfg.Concurrency)
	if v, ok := lookup(envPrefix + "VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sVERBOSE: %w", envPrefix, err))
		} else {
			cfg.Verbose = b
		}
	}

	return errors.Join(errs...)
}
