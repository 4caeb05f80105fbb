package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCapabilitiesAndBlockSizeFloor(t *testing.T) {
	t.Parallel()

	caps := DetectCapabilities()
	assert.GreaterOrEqual(t, caps.LogicalCores, 1)
	assert.GreaterOrEqual(t, caps.PreferredRenderBlockFrames(8192), 8192)
}

func TestSample(t *testing.T) {
	t.Parallel()

	snap, err := Sample()
	require.NoError(t, err)
	assert.False(t, snap.SampledAt.IsZero())
	assert.GreaterOrEqual(t, snap.CPUPercent, 0.0)
}
