// config/validate.go
package config

import (
	"fmt"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// ValidationError represents a collection of validation errors.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings checks range and consistency invariants across the
// settings tree, repairing what it safely can (per §7 InvariantViolation
// policy: in release builds, repair and continue).
func ValidateSettings(settings *Settings) error {
	var ve ValidationError

	if settings.Audio.DefaultSampleRate <= 0 {
		settings.Audio.DefaultSampleRate = DefaultSampleRate
	}
	if settings.Audio.DefaultChannels < 1 || settings.Audio.DefaultChannels > 8 {
		settings.Audio.DefaultChannels = DefaultChannels
	}
	if settings.Undo.MaxDepth <= 0 {
		settings.Undo.MaxDepth = MaxUndoDepth
	}
	if settings.Render.MinBlockFrames <= 0 {
		settings.Render.MinBlockFrames = MinRenderBlockFrames
	}
	if settings.Render.DefaultBlockFrames < settings.Render.MinBlockFrames {
		ve.Errors = append(ve.Errors, "render.defaultblockframes is below render.minblockframes")
		settings.Render.DefaultBlockFrames = settings.Render.MinBlockFrames
	}
	if settings.Plugins.ScanTimeoutSec <= 0 {
		settings.Plugins.ScanTimeoutSec = PluginScanTimeoutSeconds
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).Category(errors.CategoryInvariantViolated).Build()
	}
	return nil
}
