package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	Verbose    bool   `json:"verbose"`
	Debug      bool   `json:"debug"`
	ExtractDir string `json:"extract_dir,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// ConfigFileName is the project-local config file name.
const ConfigFileName = ".star.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
)

// fileConfig mirrors Config with optional fields so that an absent key
// does not override a lower layer.
type fileConfig struct {
	Verbose    *bool  `json:"verbose"`
	Debug      *bool  `json:"debug"`
	ExtractDir string `json:"extract_dir"` //nolint:tagliatelle // snake_case for config file
}

// LoadConfigInput carries the knobs that influence config resolution.
type LoadConfigInput struct {
	// WorkDir is the directory the project config is searched in.
	WorkDir string

	// ConfigPath, when non-empty, names an explicit config file that
	// must exist.
	ConfigPath string

	// Env is the process environment as a map.
	Env map[string]string
}

// LoadConfig loads configuration with the following precedence
// (highest wins):
//  1. Defaults (all zero)
//  2. Global user config ($XDG_CONFIG_HOME/star/config.json or
//     ~/.config/star/config.json)
//  3. Project config (.star.json in the working directory, if present)
//  4. Explicit config file via ConfigPath
//
// CLI flags are applied on top by the caller.
func LoadConfig(in LoadConfigInput) (Config, error) {
	var cfg Config

	if path := globalConfigPath(in.Env); path != "" {
		if err := applyConfigFile(&cfg, path, false); err != nil {
			return Config{}, err
		}
	}

	projectPath := filepath.Join(in.WorkDir, ConfigFileName)
	if err := applyConfigFile(&cfg, projectPath, false); err != nil {
		return Config{}, err
	}

	if in.ConfigPath != "" {
		if err := applyConfigFile(&cfg, in.ConfigPath, true); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// globalConfigPath returns the path to the global config file, or ""
// when no home directory can be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "star", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "star", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "star", "config.json")
	}

	return ""
}

// applyConfigFile merges the config file at path into cfg. A missing
// file is an error only when required is true.
func applyConfigFile(cfg *Config, path string, required bool) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from config resolution
	if err != nil {
		if os.IsNotExist(err) {
			if required {
				return fmt.Errorf("%w: %s", errConfigFileNotFound, path)
			}

			return nil
		}

		return fmt.Errorf("reading config %s: %w", path, err)
	}

	// Config files are JWCC (JSON with comments and trailing commas).
	std, err := hujson.Standardize(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(std, &fc); err != nil {
		return fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}

	if fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}

	if fc.ExtractDir != "" {
		cfg.ExtractDir = fc.ExtractDir
	}

	return nil
}
