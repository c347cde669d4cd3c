package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Ning0612/fstools/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. FSTOOLS_LOG_LEVEL
const EnvPrefix = "FSTOOLS"

// DefaultConfigPaths returns the directories searched for config.yaml
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "fstools"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "fstools"))
		paths = append(paths, filepath.Join(homeDir, ".fstools"))
	}

	return paths
}

// jobConfig mirrors domain.SyncJob so that an absent "enabled" key can be
// told apart from "enabled: false"
type jobConfig struct {
	Name      string   `mapstructure:"name"`
	Source    string   `mapstructure:"source"`
	Target    string   `mapstructure:"target"`
	Recursive bool     `mapstructure:"recursive"`
	Exclude   []string `mapstructure:"exclude"`
	Enabled   *bool    `mapstructure:"enabled"`
}

type fileConfig struct {
	Config `mapstructure:",squash"`
	Jobs   []jobConfig `mapstructure:"jobs"`
}

// Load reads and validates a configuration file. With an empty path the
// default locations are searched for config.yaml and domain.ErrConfigNotFound
// is returned when none exists.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

// LoadFromString parses and validates configuration from YAML
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

// LoadOrDefault is Load that falls back to Default when no file exists
// at the default locations. An explicit path must exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if path == "" && errors.Is(err, domain.ErrConfigNotFound) {
		cfg = Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

func newViper() *viper.Viper {
	v := viper.New()

	def := Default()
	v.SetDefault("state_dir", def.StateDir)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.compress", def.Log.Compress)
	v.SetDefault("split.chunk_size", def.Split.ChunkSize.String())
	v.SetDefault("watch.interval", def.Watch.Interval.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var fc fileConfig
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&fc, hook); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg := fc.Config
	cfg.StateDir = ExpandPath(cfg.StateDir)
	cfg.Log.File = ExpandPath(cfg.Log.File)

	for _, j := range fc.Jobs {
		job := domain.SyncJob{
			Name:      j.Name,
			Source:    ExpandPath(j.Source),
			Target:    ExpandPath(j.Target),
			Recursive: j.Recursive,
			Exclude:   j.Exclude,
			Enabled:   j.Enabled == nil || *j.Enabled,
		}
		cfg.Jobs = append(cfg.Jobs, job)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
