// config/env.go environment variable overrides, grounded on the same
// BindEnv-per-key pattern the wider example corpus uses for 12-factor
// style configuration.
package config

import "github.com/spf13/viper"

// envBinding pairs a dotted config key with an environment variable name.
type envBinding struct {
	ConfigKey string
	EnvVar    string
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "WAVECRAFT_DEBUG"},
		{"main.name", "WAVECRAFT_NAME"},
		{"main.log.path", "WAVECRAFT_LOG_PATH"},
		{"audio.defaultsamplerate", "WAVECRAFT_SAMPLE_RATE"},
		{"plugins.scanpaths", "WAVECRAFT_PLUGIN_PATHS"},
		{"plugins.scantimeoutsec", "WAVECRAFT_PLUGIN_SCAN_TIMEOUT"},
		{"keymap.path", "WAVECRAFT_KEYMAP_PATH"},
	}
}

// bindEnvVars wires each dotted config key to its environment variable.
// Errors are non-fatal: viper simply won't observe that override.
func bindEnvVars() {
	for _, b := range getEnvBindings() {
		_ = viper.BindEnv(b.ConfigKey, b.EnvVar)
	}
}
