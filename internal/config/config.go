// Package config loads minigit's non-semantic operating knobs: log level and
// the sizing of the performance layers (object read cache, graph cache).
// Nothing here may change core semantics (hash algorithm, serialization
// format, sentinel value) — those are fixed by the format itself, not
// configurable.
package config

import (
	"encoding/json"
	"os"
	"strconv"
)

type Config struct {
	LogLevel        string `json:"log_level"`         // debug, info, warn, error
	ObjectCacheSize int    `json:"object_cache_size"` // entries kept in the Object Store's LRU
	GraphCacheDir   string `json:"graph_cache_dir"`   // relative to .minigit/, defaults to "cache"
	GraphCacheSize  int    `json:"graph_cache_size"`  // entries kept in the Graph Cache's LRU
}

func Default() Config {
	return Config{
		LogLevel:        "info",
		ObjectCacheSize: 1024,
		GraphCacheDir:   "cache",
		GraphCacheSize:  1024,
	}
}

// Load reads an optional config file at path, falling back to defaults for
// any field it doesn't set, then applies MINIGIT_* environment overrides.
// A missing file is not an error — it just means "use the defaults".
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			if decodeErr := json.NewDecoder(file).Decode(&cfg); decodeErr != nil {
				return Config{}, decodeErr
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MINIGIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MINIGIT_OBJECT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ObjectCacheSize = n
		}
	}
	if v := os.Getenv("MINIGIT_GRAPH_CACHE_DIR"); v != "" {
		cfg.GraphCacheDir = v
	}
	if v := os.Getenv("MINIGIT_GRAPH_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GraphCacheSize = n
		}
	}
}
