package pluginscan

import (
	"bufio"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWorkerScanSuccess(t *testing.T) {
	t.Parallel()

	coordIn, workerOut := io.Pipe()
	workerIn, coordOut := io.Pipe()

	scan := func(path, format string) ([]Descriptor, error) {
		return []Descriptor{{Identifier: "synth.1", Name: "Synth", Format: format}}, nil
	}

	done := make(chan error, 1)
	go func() { done <- RunWorker(workerIn, workerOut, scan) }()

	reader := bufio.NewReader(coordIn)

	ready, err := readMessage(reader)
	require.NoError(t, err)
	_, ok := ready.(*Ready)
	assert.True(t, ok)

	require.NoError(t, writeMessage(coordOut, &ScanPlugin{Path: "/plugins/synth.vst3", Format: "vst3"}))

	started, err := readMessage(reader)
	require.NoError(t, err)
	s, ok := started.(*ScanStarted)
	require.True(t, ok)
	assert.Equal(t, "/plugins/synth.vst3", s.Path)

	result, err := readMessage(reader)
	require.NoError(t, err)
	complete, ok := result.(*ScanComplete)
	require.True(t, ok)
	require.Len(t, complete.Descriptors, 1)
	assert.Equal(t, "synth.1", complete.Descriptors[0].Identifier)

	require.NoError(t, writeMessage(coordOut, &Shutdown{}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after Shutdown")
	}

	_ = coordIn.Close()
	_ = coordOut.Close()
}

func TestRunWorkerScanFailure(t *testing.T) {
	t.Parallel()

	coordIn, workerOut := io.Pipe()
	workerIn, coordOut := io.Pipe()

	scan := func(path, format string) ([]Descriptor, error) {
		return nil, assert.AnError
	}

	go func() { _ = RunWorker(workerIn, workerOut, scan) }()

	reader := bufio.NewReader(coordIn)
	_, err := readMessage(reader) // Ready
	require.NoError(t, err)

	require.NoError(t, writeMessage(coordOut, &ScanPlugin{Path: "/plugins/broken.vst3", Format: "vst3"}))

	_, err = readMessage(reader) // ScanStarted
	require.NoError(t, err)

	msg, err := readMessage(reader)
	require.NoError(t, err)
	failed, ok := msg.(*ScanFailed)
	require.True(t, ok)
	assert.Equal(t, "/plugins/broken.vst3", failed.Path)
	assert.NotEmpty(t, failed.Error)

	require.NoError(t, writeMessage(coordOut, &Shutdown{}))
	_ = coordIn.Close()
	_ = coordOut.Close()
}

func TestRunWorkerHeartbeat(t *testing.T) {
	t.Parallel()

	coordIn, workerOut := io.Pipe()
	workerIn, coordOut := io.Pipe()

	go func() { _ = RunWorker(workerIn, workerOut, func(string, string) ([]Descriptor, error) { return nil, nil }) }()

	reader := bufio.NewReader(coordIn)
	_, err := readMessage(reader) // Ready
	require.NoError(t, err)

	require.NoError(t, writeMessage(coordOut, &Heartbeat{Time: 42}))
	msg, err := readMessage(reader)
	require.NoError(t, err)
	ack, ok := msg.(*HeartbeatAck)
	require.True(t, ok)
	assert.Equal(t, int64(42), ack.Time)

	require.NoError(t, writeMessage(coordOut, &Shutdown{}))
	_ = coordIn.Close()
	_ = coordOut.Close()
}

func TestPluginFormatOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "vst3", pluginFormatOf("/plugins/synth.vst3"))
	assert.Equal(t, "", pluginFormatOf("/plugins/noext"))
}
