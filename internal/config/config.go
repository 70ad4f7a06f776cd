package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Steam contains configuration for the Steam store search API.
type Steam struct {
	Enabled bool `toml:"enabled"`
}

// RAWG contains configuration for the RAWG API.
type RAWG struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
}

// IGDB contains configuration for the IGDB (Twitch) API.
type IGDB struct {
	Enabled     bool   `toml:"enabled"`
	ClientID    string `toml:"client_id"`
	AccessToken string `toml:"access_token"`
}

// HLTB contains configuration for the HowLongToBeat endpoint.
type HLTB struct {
	Enabled bool `toml:"enabled"`
}

// Wikidata contains configuration for the Wikidata endpoints.
type Wikidata struct {
	Enabled bool `toml:"enabled"`
}

// Providers groups the per-provider settings.
type Providers struct {
	Steam    Steam    `toml:"steam"`
	RAWG     RAWG     `toml:"rawg"`
	IGDB     IGDB     `toml:"igdb"`
	HLTB     HLTB     `toml:"hltb"`
	Wikidata Wikidata `toml:"wikidata"`
}

// Resolve contains run-level resolution settings.
type Resolve struct {
	Workers    int  `toml:"workers"`
	CrossHints bool `toml:"cross_hints"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gamepin.
//
// Configuration sections by subsystem:
//   - Paths: data, cache, and log directories
//   - Providers: per-provider enablement and credentials
//   - Resolve: worker count and cross-provider hinting
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Providers Providers `toml:"providers"`
	Resolve   Resolve   `toml:"resolve"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gamepin/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/gamepin/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gamepin.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the catalog database location inside the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the run lock file location inside the data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "run.lock")
}

// CacheFile returns the persisted cache location for one provider.
func (c *Config) CacheFile(provider string) string {
	return filepath.Join(c.Paths.CacheDir, provider+".json")
}

// EnabledProviders returns the enabled provider names in preference order.
func (c *Config) EnabledProviders() []string {
	var names []string
	if c.Providers.Steam.Enabled {
		names = append(names, "steam")
	}
	if c.Providers.RAWG.Enabled {
		names = append(names, "rawg")
	}
	if c.Providers.IGDB.Enabled {
		names = append(names, "igdb")
	}
	if c.Providers.HLTB.Enabled {
		names = append(names, "hltb")
	}
	if c.Providers.Wikidata.Enabled {
		names = append(names, "wikidata")
	}
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
