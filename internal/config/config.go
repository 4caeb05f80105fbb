// Package config provides the application's key/value settings store: a
// viper/YAML-backed Settings struct reachable through a typed tree and,
// per §6, through dotted-path Get/Set for UI-driven preference editing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// LogConfig defines the configuration for a single rotated log file.
type LogConfig struct {
	Enabled     bool
	Path        string
	Rotation    RotationType
	MaxSize     int64
	RotationDay time.Weekday
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// Settings is the root of the application's configuration tree.
type Settings struct {
	Debug bool

	Main struct {
		Name string
		Log  LogConfig
	}

	Audio struct {
		DefaultSampleRate int
		DefaultBitDepth   int
		DefaultChannels   int
	}

	Playback struct {
		RenderBlockFrames int
	}

	Undo struct {
		MaxDepth          int
		CoalesceWindowMs  int
	}

	Plugins struct {
		ScanPaths        []string
		ScanTimeoutSec   int
		HeartbeatSec     int
		AutoBlacklist    bool
		CacheEnabled     bool
	}

	Render struct {
		DefaultBlockFrames int
		MinBlockFrames     int
		CPUWarnPercent     float64
		CPUCriticalPercent float64
		RSSWarnMB          int64
		RSSCriticalMB      int64
	}

	Keymap struct {
		Path string
	}

	Telemetry struct {
		SentryEnabled    bool
		SentryDSN        string
		SentrySampleRate float64
	}
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// fresh Settings instance, creating a default config file if none exists.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, errors.New(err).Category(errors.CategoryConfig).
			Context("operation", "init_viper").Build()
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).Category(errors.CategoryConfig).
			Context("operation", "unmarshal_settings").Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()
	bindEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

func createDefaultConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	if err := viper.SafeWriteConfigAs(configPath); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance, or nil if Load has
// not been called.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading defaults lazily
// on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				// Fall back to in-memory defaults rather than halting the
				// process: a missing/unwritable config directory must not
				// block editing an already-open document.
				settingsMutex.Lock()
				settingsInstance = &Settings{}
				setDefaultConfig()
				_ = viper.Unmarshal(settingsInstance)
				settingsMutex.Unlock()
			}
		}
	})
	return GetSettings()
}

// Save persists the current settings back to the resolved config file.
func Save() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	if settingsInstance == nil {
		return errors.Newf("settings not loaded").Category(errors.CategoryState).Build()
	}
	if err := viper.WriteConfig(); err != nil {
		return errors.New(err).Category(errors.CategoryIoError).
			Context("operation", "write_config").Build()
	}
	return nil
}

// Get reads a single dotted-path key (e.g. "plugins.scantimeoutsec").
// Numeric, string, bool, and color (hex-string) values are all returned
// as their natural Go type via viper's type-aware accessors.
func Get(key string) any {
	return viper.Get(key)
}

// Set writes a single dotted-path key in memory; call Save to persist.
func Set(key string, value any) {
	viper.Set(key, value)
}
