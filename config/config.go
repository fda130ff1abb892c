// Package config loads the ambient tunables compgraph's execution layer
// needs but that spec §4.5/§6 leave to the caller: external-sort chunk
// size, spill directory, and log verbosity.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rowkit/compgraph/extsort"
)

// Config is the TOML-loadable configuration for a graph execution.
type Config struct {
	// SortChunkRows is the external sort's in-memory chunk size.
	SortChunkRows int `toml:"sort_chunk_rows"`
	// TempDir is the base directory for external-sort spill runs. Empty
	// means the OS default temp directory.
	TempDir string `toml:"temp_dir"`
	// LogLevel is a logrus level name ("debug", "info", "warn", ...).
	LogLevel string `toml:"log_level"`
}

// Default returns the out-of-the-box configuration.
func Default() Config {
	return Config{
		SortChunkRows: 10000,
		LogLevel:      "info",
	}
}

// Load reads a TOML configuration file, falling back to Default() for any
// field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "loading config from %s", path)
	}
	if cfg.SortChunkRows <= 0 {
		cfg.SortChunkRows = 10000
	}
	return cfg, nil
}

// SortConfig adapts Config to extsort.Config.
func (c Config) SortConfig() extsort.Config {
	return extsort.Config{ChunkRows: c.SortChunkRows, TempDir: c.TempDir}
}

// Logger builds a logrus.Logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
