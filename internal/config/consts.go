// config/consts.go hard coded constants
package config

// AppName is used to derive OS-specific settings directories and the
// default window/process title.
const AppName = "wavecraft"

const (
	// DefaultSampleRate is used for new, empty documents when the caller
	// does not specify one explicitly.
	DefaultSampleRate = 48000
	// DefaultBitDepth is used for new, empty documents.
	DefaultBitDepth = 16
	// DefaultChannels is used for new, empty documents.
	DefaultChannels = 2

	// MaxEQBands is the per-instance band cap of the parametric EQ (§4.C).
	MaxEQBands = 20

	// MaxUndoDepth is the undo stack cap (§4.E).
	MaxUndoDepth = 100

	// UndoCoalesceWindowMs is the default coalescing window for undo
	// records sharing a coalesce key (§4.E / Open Question 4).
	UndoCoalesceWindowMs = 250

	// PluginScanTimeoutSeconds is the per-plugin scan deadline (§4.I).
	PluginScanTimeoutSeconds = 30

	// ScannerHeartbeatIntervalSeconds is the coordinator<->worker heartbeat
	// cadence (§6).
	ScannerHeartbeatIntervalSeconds = 1

	// DefaultRenderBlockFrames is the offline renderer's default block
	// granularity (§4.J).
	DefaultRenderBlockFrames = 8192
	// MinRenderBlockFrames is the floor for user-configured block size.
	MinRenderBlockFrames = 64
)

const (
	RegionsSidecarSuffix = ".regions.json"
	MarkersSidecarSuffix = ".markers.json"
	PluginCacheFileName  = "plugin_cache.xml"
	EQPresetsFileName    = "eq_presets.json"
)
