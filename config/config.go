// Persistent debugger settings, stored as yaml under ~/.sdb/.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	configDirName   = ".sdb"
	configFileName  = "config.yml"
	historyFileName = "history"
)

type Config struct {
	// Level for the global logger: trace, debug, info, warning, error.
	LogLevel string `yaml:"log-level,omitempty"`

	// Destination file for log output.  Empty logs to stderr.
	LogFile string `yaml:"log-file,omitempty"`

	// Command history location for the interactive shell.
	HistoryFile string `yaml:"history-file,omitempty"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

func defaultConfig(dir string) *Config {
	return &Config{
		LogLevel:    "error",
		HistoryFile: filepath.Join(dir, historyFileName),
	}
}

// LoadConfig reads ~/.sdb/config.yml, creating it with defaults when
// missing.  Unset fields fall back to defaults.
func LoadConfig() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, configFileName)

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		config := defaultConfig(dir)

		err = writeConfig(dir, path, config)
		if err != nil {
			return nil, err
		}

		return config, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := &Config{}
	err = yaml.Unmarshal(content, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	defaults := defaultConfig(dir)
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.HistoryFile == "" {
		config.HistoryFile = defaults.HistoryFile
	}

	return config, nil
}

func writeConfig(dir string, path string, config *Config) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	content, err := yaml.Marshal(config)
	if err != nil {
		panic("should never happen: " + err.Error())
	}

	err = os.WriteFile(path, content, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}

// SetupLogger applies the config to the global logrus logger.
func (config *Config) SetupLogger() error {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level (%s): %w", config.LogLevel, err)
	}
	logrus.SetLevel(level)

	if config.LogFile != "" {
		file, err := os.OpenFile(
			config.LogFile,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
		}
		logrus.SetOutput(file)
	}

	return nil
}
