// Package paths resolves the configuration, data, tables, and backup
// directory locations for tabler.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tabler"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".tabler"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TABLER_CONFIG_DIR"
	EnvDataDir   = "TABLER_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tabler (fallback ~/.config/tabler)
// macOS:   ~/Library/Application Support/tabler
// Windows: %APPDATA%/tabler
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > TABLER_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > TABLER_DATA_DIR env > config.yaml data_dir > $(CWD)/.tabler.
// The env order matches Viper's AutomaticEnv for the data_dir key.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveUnder places a configured directory relative to the data directory.
// An absolute value is returned unchanged, a relative one is joined to
// dataDir, and an empty one falls back to dataDir/defaultName.
func ResolveUnder(dataDir, value, defaultName string) string {
	switch {
	case value == "":
		return filepath.Join(dataDir, defaultName)
	case filepath.IsAbs(value):
		return filepath.Clean(value)
	default:
		return filepath.Join(dataDir, value)
	}
}
