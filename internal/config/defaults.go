package config

const (
	defaultDataDir        = "~/.local/share/gamepin"
	defaultCacheDir       = "~/.cache/gamepin/providers"
	defaultLogDir         = "~/.local/share/gamepin/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultResolveWorkers = 4
)

// Default returns a Config populated with repository defaults.
//
// Steam, HLTB, and Wikidata need no credentials and default on; RAWG and
// IGDB default off until keys are configured.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Providers: Providers{
			Steam:    Steam{Enabled: true},
			HLTB:     HLTB{Enabled: true},
			Wikidata: Wikidata{Enabled: true},
		},
		Resolve: Resolve{
			Workers:    defaultResolveWorkers,
			CrossHints: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
