package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tabler/internal/paths"
	"github.com/mesh-intelligence/tabler/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "TABLER"
)

// Config keys in config.yaml.
const (
	cfgKeyDataDir   = "data_dir"
	cfgKeyTablesDir = "tables_dir"
	cfgKeyBackupDir = "backup_dir"
	cfgKeyNamesFile = "names_file"
	cfgKeyTestRows  = "test_rows"
	cfgKeyLogLevel  = "log_level"
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	DataDir   string `yaml:"data_dir,omitempty"`
	TablesDir string `yaml:"tables_dir"`
	BackupDir string `yaml:"backup_dir"`
	NamesFile string `yaml:"names_file,omitempty"`
	TestRows  int    `yaml:"test_rows"`
	LogLevel  string `yaml:"log_level"`
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error. TABLER_* environment variables override
// file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyTablesDir, types.DefaultTablesDirName)
	v.SetDefault(cfgKeyBackupDir, types.DefaultBackupDirName)
	v.SetDefault(cfgKeyTestRows, types.DefaultTestRows)
	v.SetDefault(cfgKeyLogLevel, types.DefaultLogLevel)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// buildConfig resolves every directory in v against the data directory and
// validates the result.
func buildConfig(v *viper.Viper, dataDirFlag string) (types.Config, string, error) {
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, "", fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		TablesDir: paths.ResolveUnder(dataDir, v.GetString(cfgKeyTablesDir), types.DefaultTablesDirName),
		BackupDir: paths.ResolveUnder(dataDir, v.GetString(cfgKeyBackupDir), types.DefaultBackupDirName),
		TestRows:  v.GetInt(cfgKeyTestRows),
		LogLevel:  strings.ToLower(v.GetString(cfgKeyLogLevel)),
	}
	if names := v.GetString(cfgKeyNamesFile); names != "" {
		cfg.NamesFile = paths.ResolveUnder(dataDir, names, "")
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, "", err
	}
	return cfg, dataDir, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := configFile{
		DataDir:   dataDir,
		TablesDir: types.DefaultTablesDirName,
		BackupDir: types.DefaultBackupDirName,
		TestRows:  types.DefaultTestRows,
		LogLevel:  types.DefaultLogLevel,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}

// newLogger returns a text slog logger on w at the configured level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
