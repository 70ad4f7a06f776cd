package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateResolve(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProviders() error {
	if len(c.EnabledProviders()) == 0 {
		return errors.New("at least one provider must be enabled")
	}
	if c.Providers.RAWG.Enabled && c.Providers.RAWG.APIKey == "" {
		return c.credentialError("providers.rawg.api_key", "RAWG_API_KEY")
	}
	if c.Providers.IGDB.Enabled {
		if c.Providers.IGDB.ClientID == "" {
			return c.credentialError("providers.igdb.client_id", "IGDB_CLIENT_ID")
		}
		if c.Providers.IGDB.AccessToken == "" {
			return c.credentialError("providers.igdb.access_token", "IGDB_ACCESS_TOKEN")
		}
	}
	return nil
}

func (c *Config) validateResolve() error {
	if c.Resolve.Workers <= 0 {
		return errors.New("resolve.workers must be positive")
	}
	if c.Resolve.Workers > 32 {
		return errors.New("resolve.workers must be 32 or fewer")
	}
	return nil
}

func (c *Config) credentialError(field, envVar string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/gamepin/config.toml"
	}
	return fmt.Errorf("%s is required. Set %s env var or edit %s (create with 'gamepin config init')", field, envVar, defaultPath)
}
