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

const envPrefix = "REELVIEW_"

// LoadEnv reads .env style files into the process environment. Missing files
// are skipped; variables already set win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v := os.Getenv(envPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(envPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(envPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("HOST", &cfg.Server.Host)
	num("PORT", &cfg.Server.Port)
	str("DB_PATH", &cfg.Catalog.Path)
	flag("SEED", &cfg.Catalog.Seed)
	str("LIBRARY_PATH", &cfg.Library.Path)
	num("PAGE_SIZE", &cfg.Feed.PageSize)
	dur("FEED_LATENCY", &cfg.Feed.Latency)
	dur("DWELL", &cfg.Viewport.Dwell)
	num("MAX_SESSIONS", &cfg.Sessions.Max)
	dur("SESSION_TTL", &cfg.Sessions.TTL)
	str("LOG_LEVEL", &cfg.Logging.Level)
	flag("LOG_PRETTY", &cfg.Logging.Pretty)

	return errors.Join(errs...)
}
