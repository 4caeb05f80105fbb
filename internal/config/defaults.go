// config/defaults.go default values for settings
package config

import "github.com/spf13/viper"

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", AppName)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/wavecraft.log")
	viper.SetDefault("main.log.rotation", string(RotationSize))
	viper.SetDefault("main.log.maxsize", int64(10*1024*1024))

	viper.SetDefault("audio.defaultsamplerate", DefaultSampleRate)
	viper.SetDefault("audio.defaultbitdepth", DefaultBitDepth)
	viper.SetDefault("audio.defaultchannels", DefaultChannels)

	viper.SetDefault("playback.renderblockframes", DefaultRenderBlockFrames)

	viper.SetDefault("undo.maxdepth", MaxUndoDepth)
	viper.SetDefault("undo.coalescewindowms", UndoCoalesceWindowMs)

	viper.SetDefault("plugins.scanpaths", []string{})
	viper.SetDefault("plugins.scantimeoutsec", PluginScanTimeoutSeconds)
	viper.SetDefault("plugins.heartbeatsec", ScannerHeartbeatIntervalSeconds)
	viper.SetDefault("plugins.autoblacklist", false)
	viper.SetDefault("plugins.cacheenabled", true)

	viper.SetDefault("render.defaultblockframes", DefaultRenderBlockFrames)
	viper.SetDefault("render.minblockframes", MinRenderBlockFrames)
	viper.SetDefault("render.cpuwarnpercent", 80.0)
	viper.SetDefault("render.cpucriticalpercent", 95.0)
	viper.SetDefault("render.rsswarnmb", int64(1024))
	viper.SetDefault("render.rsscriticalmb", int64(4096))

	viper.SetDefault("keymap.path", "")

	viper.SetDefault("telemetry.sentryenabled", false)
	viper.SetDefault("telemetry.sentrydsn", "")
	viper.SetDefault("telemetry.sentrysamplerate", 1.0)
}
