// Package config loads git-sync defaults from a YAML file and GIT_SYNC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds the user defaults applied when a flag is not given.
type Config struct {
	Message      string `mapstructure:"message" yaml:"message"`
	ForwardAgent bool   `mapstructure:"forward_agent" yaml:"forward_agent"`
	Home         string `mapstructure:"home" yaml:"home"`
	SSHCommand   string `mapstructure:"ssh_command" yaml:"ssh_command"`
	AutoConfirm  bool   `mapstructure:"auto_confirm" yaml:"auto_confirm"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
}

const (
	DefaultMessage    = "wip [skip ci]"
	DefaultSSHCommand = "ssh"
	DefaultConfigName = "config"
	DefaultConfigDir  = "git-sync"
	EnvPrefix         = "GIT_SYNC"
)

var boolKeys = map[string]bool{
	"forward_agent": true,
	"auto_confirm":  true,
}

var stringKeys = map[string]bool{
	"message":     true,
	"home":        true,
	"ssh_command": true,
	"log_file":    true,
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(boolKeys)+len(stringKeys))
	for k := range boolKeys {
		keys = append(keys, k)
	}
	for k := range stringKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigDir returns $XDG_CONFIG_HOME/git-sync, falling back to ~/.config/git-sync.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, DefaultConfigDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".config", DefaultConfigDir), nil
}

// InitConfig wires viper to cfgFile (or the default location), defaults and
// the environment. A missing file is not an error.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName(DefaultConfigName)
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("message", DefaultMessage)
	viper.SetDefault("forward_agent", false)
	viper.SetDefault("home", "")
	viper.SetDefault("ssh_command", DefaultSSHCommand)
	viper.SetDefault("auto_confirm", false)
	viper.SetDefault("log_file", "")

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	return nil
}

// GetConfig returns the effective configuration.
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}

// SetConfigValue validates and sets a key in memory.
func SetConfigValue(key, value string) error {
	switch {
	case boolKeys[key]:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q is not a boolean", key, value)
		}
		viper.Set(key, b)
	case stringKeys[key]:
		viper.Set(key, value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// SaveConfig writes the configuration file with 0600 permissions, creating
// its directory when needed.
func SaveConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, DefaultConfigName+".yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to set configuration file permissions: %w", err)
	}
	return nil
}
