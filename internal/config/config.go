package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c2h5oh/datasize"

	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/logger"
)

const (
	// DatabaseName is the execution history database inside StateDir
	DatabaseName = "fstools.db"

	// PIDFileName marks a running watcher inside StateDir
	PIDFileName = "fstools.pid"

	DefaultChunkSize     = 10 * datasize.MB
	DefaultWatchInterval = 5 * time.Minute
)

// Config represents the complete configuration for fstools
type Config struct {
	// StateDir holds the history database, lock file and PID file
	StateDir string `mapstructure:"state_dir"`

	Log   LogConfig   `mapstructure:"log"`
	Split SplitConfig `mapstructure:"split"`
	Watch WatchConfig `mapstructure:"watch"`

	// Jobs are named sync pairs runnable with `sync --job` and `watch`
	Jobs []domain.SyncJob `mapstructure:"-"`
}

// LogConfig controls the console and file logger
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SplitConfig holds defaults for `fstools split`
type SplitConfig struct {
	ChunkSize datasize.ByteSize `mapstructure:"chunk_size"`
}

// WatchConfig holds defaults for `fstools watch`
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		StateDir: DefaultStateDir(),
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxAgeDays: 7,
			MaxBackups: 3,
		},
		Split: SplitConfig{ChunkSize: DefaultChunkSize},
		Watch: WatchConfig{Interval: DefaultWatchInterval},
	}
}

// DefaultStateDir is $XDG_STATE_HOME/fstools, falling back to
// ~/.local/state/fstools
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "fstools")
	}
	return ExpandPath("~/.local/state/fstools")
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("%w: state_dir cannot be empty", domain.ErrConfigInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", domain.ErrConfigInvalid, err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: log.format: %v", domain.ErrConfigInvalid, err)
	}
	if c.Split.ChunkSize == 0 {
		return fmt.Errorf("%w: split.chunk_size must be positive", domain.ErrConfigInvalid)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("%w: watch.interval must be positive", domain.ErrConfigInvalid)
	}

	names := make(map[string]bool)
	for _, job := range c.Jobs {
		if job.Name == "" {
			return fmt.Errorf("%w: job name cannot be empty", domain.ErrConfigInvalid)
		}
		if names[job.Name] {
			return fmt.Errorf("%w: duplicate job name: %s", domain.ErrConfigInvalid, job.Name)
		}
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		for _, pattern := range job.Exclude {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("%w: job %s: invalid exclude pattern %q", domain.ErrConfigInvalid, job.Name, pattern)
			}
		}
		names[job.Name] = true
	}

	return nil
}

// GetJob returns a job by name
func (c *Config) GetJob(name string) (*domain.SyncJob, error) {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, name)
}

// GetEnabledJobs returns all enabled jobs in file order
func (c *Config) GetEnabledJobs() []domain.SyncJob {
	var jobs []domain.SyncJob
	for _, j := range c.Jobs {
		if j.Enabled {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// DatabasePath returns the history database location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.StateDir, DatabaseName)
}

// PIDPath returns the watcher PID file location
func (c *Config) PIDPath() string {
	return filepath.Join(c.StateDir, PIDFileName)
}

// LoggerConfig translates the log section into a logger.Config.
// Validate must have passed.
func (c *Config) LoggerConfig() logger.Config {
	level, _ := logger.ParseLevel(c.Log.Level)
	format, _ := logger.ParseFormat(c.Log.Format)

	return logger.Config{
		Level:  level,
		Format: format,
		File: logger.FileConfig{
			Path:       c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxAgeDays: c.Log.MaxAgeDays,
			MaxBackups: c.Log.MaxBackups,
			Compress:   c.Log.Compress,
		},
	}
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			switch {
			case len(path) == 1:
				path = home
			case path[1] == '/' || path[1] == filepath.Separator:
				path = filepath.Join(home, path[2:])
			}
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}
