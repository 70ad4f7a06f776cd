package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeResolve()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProviders() {
	c.Providers.RAWG.APIKey = strings.TrimSpace(c.Providers.RAWG.APIKey)
	if c.Providers.RAWG.APIKey == "" {
		if value, ok := os.LookupEnv("RAWG_API_KEY"); ok {
			c.Providers.RAWG.APIKey = strings.TrimSpace(value)
		}
	}
	c.Providers.IGDB.ClientID = strings.TrimSpace(c.Providers.IGDB.ClientID)
	if c.Providers.IGDB.ClientID == "" {
		if value, ok := os.LookupEnv("IGDB_CLIENT_ID"); ok {
			c.Providers.IGDB.ClientID = strings.TrimSpace(value)
		}
	}
	c.Providers.IGDB.AccessToken = strings.TrimSpace(c.Providers.IGDB.AccessToken)
	if c.Providers.IGDB.AccessToken == "" {
		if value, ok := os.LookupEnv("IGDB_ACCESS_TOKEN"); ok {
			c.Providers.IGDB.AccessToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeResolve() {
	if c.Resolve.Workers <= 0 {
		c.Resolve.Workers = defaultResolveWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
