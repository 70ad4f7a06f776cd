package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
	"gamepin/internal/config"
	"gamepin/internal/logging"
	"gamepin/internal/providercache"
	"gamepin/internal/providers/hltb"
	"gamepin/internal/providers/igdb"
	"gamepin/internal/providers/rawg"
	"gamepin/internal/providers/steam"
	"gamepin/internal/providers/wikidata"
	"gamepin/internal/resolve"
	"gamepin/internal/runner"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		c.log = logger
	})
	return c.log
}

// withStore opens the catalog store for the duration of fn.
func (c *commandContext) withStore(fn func(*catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withRunner opens the store and builds the resolver stack for fn.
func (c *commandContext) withRunner(fn func(*runner.Runner, *catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	resolver, err := c.buildResolver(cfg)
	if err != nil {
		return err
	}
	return c.withStore(func(store *catalog.Store) error {
		r, err := runner.New(store, resolver, cfg.LockPath(), c.logger(),
			runner.WithWorkers(cfg.Resolve.Workers))
		if err != nil {
			return err
		}
		return fn(r, store)
	})
}

func (c *commandContext) buildResolver(cfg *config.Config) (*resolve.Resolver, error) {
	logger := c.logger()
	var providers []resolve.Provider
	for _, name := range cfg.EnabledProviders() {
		adapter, err := newAdapter(name, cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, resolve.Provider{
			Adapter: adapter,
			Cache:   providercache.New(name, cfg.CacheFile(name), logger),
		})
	}
	var opts []resolve.Option
	if cfg.Resolve.CrossHints {
		opts = append(opts, resolve.WithCrossHints())
	}
	return resolve.New(providers, logger, opts...), nil
}

func newAdapter(name string, cfg *config.Config) (resolve.ProviderAdapter, error) {
	switch name {
	case steam.Name:
		return steam.New(), nil
	case rawg.Name:
		return rawg.New(cfg.Providers.RAWG.APIKey)
	case igdb.Name:
		return igdb.New(cfg.Providers.IGDB.ClientID, cfg.Providers.IGDB.AccessToken)
	case hltb.Name:
		return hltb.New(), nil
	case wikidata.Name:
		return wikidata.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
