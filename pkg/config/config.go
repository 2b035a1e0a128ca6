// Package config loads runtime settings for magickfx.
//
// Settings only tune how the engine is reached and where scratch files
// live. Effect options are never read from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	EnvEngine    = "MAGICKFX_ENGINE"
	EnvBinDir    = "MAGICKFX_BIN_DIR"
	EnvTmpDir    = "MAGICKFX_TMPDIR"
	EnvLogLevel  = "MAGICKFX_LOG_LEVEL"
	EnvMaxTokens = "MAGICKFX_MAX_TOKENS"
	EnvGraph     = "MAGICKFX_GRAPH"

	DefaultMaxTokens = 4000
)

// Config holds the runtime settings.
type Config struct {
	// Engine selects the adapter: auto, im6, im7 or wand.
	Engine string
	// BinDir, when set, is searched for convert/identify/magick before PATH.
	BinDir string
	// TmpDir is the parent of each run's arena directory.
	TmpDir   string
	LogLevel string
	// MaxTokens bounds a single engine invocation; longer pipelines are
	// split into batches with checkpoint files in between.
	MaxTokens int
	// GraphPath, when set, receives the pipeline DAG in DOT format.
	GraphPath string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Engine:    "auto",
		LogLevel:  "warn",
		MaxTokens: DefaultMaxTokens,
	}
}

// Load reads the optional dotenv files and then the process environment.
// A missing dotenv file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrapf(err, "loading %s", f)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a lookup function such as os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup(EnvEngine); ok && strings.TrimSpace(v) != "" {
		cfg.Engine = strings.ToLower(strings.TrimSpace(v))
	}
	switch cfg.Engine {
	case "auto", "im6", "im7", "wand":
	default:
		return Config{}, errors.Errorf("%s: unknown engine %q (want auto, im6, im7 or wand)", EnvEngine, cfg.Engine)
	}
	if v, ok := lookup(EnvBinDir); ok {
		cfg.BinDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvTmpDir); ok {
		cfg.TmpDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvMaxTokens); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 64 {
			return Config{}, errors.Errorf("%s: expected an integer >= 64, got %q", EnvMaxTokens, v)
		}
		cfg.MaxTokens = n
	}
	if v, ok := lookup(EnvGraph); ok {
		cfg.GraphPath = strings.TrimSpace(v)
	}
	return cfg, nil
}
