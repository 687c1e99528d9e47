package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/miles/internal/paths"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Config keys read from config.yaml.
const (
	keyBackend   = "backend"
	keyDataDir   = "data_dir"
	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"
	keyLogFile   = "log.file"
)

// Defaults written by init and used when config.yaml is absent.
const (
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend string    `yaml:"backend"`
	DataDir string    `yaml:"data_dir,omitempty"`
	Log     logConfig `yaml:"log"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// loadConfig reads config.yaml from configDir. A missing file yields the
// defaults. Backend and log keys may be overridden by MILES_* variables;
// data_dir is not, because MILES_DATA_DIR ranks below config.yaml.
func loadConfig(configDir string) (configFile, error) {
	v := viper.New()
	v.SetDefault(keyBackend, types.BackendSQLite)
	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)

	for key, env := range map[string]string{
		keyBackend:   "MILES_BACKEND",
		keyLogLevel:  "MILES_LOG_LEVEL",
		keyLogFormat: "MILES_LOG_FORMAT",
		keyLogFile:   "MILES_LOG_FILE",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return configFile{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return configFile{}, fmt.Errorf("reading config: %w", err)
		}
	}

	return configFile{
		Backend: v.GetString(keyBackend),
		DataDir: v.GetString(keyDataDir),
		Log: logConfig{
			Level:  v.GetString(keyLogLevel),
			Format: v.GetString(keyLogFormat),
			File:   v.GetString(keyLogFile),
		},
	}, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left alone.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := filepath.Join(configDir, paths.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Log:     logConfig{Level: defaultLogLevel, Format: defaultLogFormat},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}
