// Package config resolves the snapshot database location, the global
// config file, and the ADS API token.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvToken is the environment variable holding the ADS API token.
	EnvToken = "ADS_API_TOKEN"
	// EnvDBPath overrides the snapshot database location.
	EnvDBPath = "CITETRACK_DB"

	// DataDirName is the directory name under XDG_DATA_HOME.
	DataDirName = "citetrack"
	// DBFileName is the snapshot database file name.
	DBFileName = "citetrack.db"

	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "citetrack"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfig represents configuration stored in
// ~/.config/citetrack/config.yml. Every field is optional.
type GlobalConfig struct {
	ADSToken string `yaml:"ads_token,omitempty"`
	DBPath   string `yaml:"db_path,omitempty"`
	MaxRows  int    `yaml:"max_rows,omitempty"`
}

var globalConfigCache *GlobalConfig

// LoadDotenv loads a .env file from the working directory when present.
// A missing file is not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citetrack/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.DBPath != "" {
		cfg.DBPath = ExpandTilde(cfg.DBPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// DBPath returns the snapshot database location, creating its parent
// directory. Resolution order: CITETRACK_DB, db_path from the global
// config, then XDG_DATA_HOME/citetrack/citetrack.db (defaulting
// XDG_DATA_HOME to ~/.local/share).
func DBPath() (string, error) {
	if path := os.Getenv(EnvDBPath); path != "" {
		return ensureParent(ExpandTilde(path))
	}
	if cfg, err := LoadGlobalConfig(); err == nil && cfg.DBPath != "" {
		return ensureParent(cfg.DBPath)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return ensureParent(filepath.Join(dataHome, DataDirName, DBFileName))
}

func ensureParent(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return path, nil
}

// Token returns the ADS API token from the environment or the global
// config. Empty when neither is set; callers fall back to the token
// stored in the database.
func Token() string {
	if token := os.Getenv(EnvToken); token != "" {
		return token
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.ADSToken
}

// MaxRows returns the configured per-query row cap, or 0 when unset.
func MaxRows() int {
	cfg, _ := LoadGlobalConfig()
	return cfg.MaxRows
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
