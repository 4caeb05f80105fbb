// Package render implements offline (non-real-time) processing of a
// selection or whole buffer through an independent copy of the plugin
// chain, with progress reporting and cooperative cancellation. Grounded on
// the host's export pipeline: stage the work in fixed-size blocks, report
// coarse-grained progress per stage, and commit the result only once
// every block has been produced.
package render

import (
	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/eq"
	"github.com/wavecraft/wavecraft/internal/errors"
	"github.com/wavecraft/wavecraft/internal/events"
	"github.com/wavecraft/wavecraft/internal/plugins"
	"github.com/wavecraft/wavecraft/internal/sysinfo"
)

// DefaultBlockFrames and MinBlockFrames bound the user-configurable block
// granularity a render is chopped into.
const (
	DefaultBlockFrames = config.DefaultRenderBlockFrames
	MinBlockFrames     = config.MinRenderBlockFrames
)

// Status reports which render stage a progress callback fired from.
type Status string

const (
	StatusLoading      Status = "loading"
	StatusDSP          Status = "dsp"
	StatusPlugins      Status = "plugins"
	StatusFormatConvert Status = "format-convert"
	StatusSaving       Status = "saving"
)

// Outcome is a render's terminal state.
type Outcome int

const (
	Completed Outcome = iota
	Cancelled
)

// Result is the output of a render.
type Result struct {
	PCM     audiobuffer.PCM
	Outcome Outcome
}

// Progress is called with a fraction in [0,1] and the current stage; an
// optional resource snapshot is attached when sampling succeeds (best
// effort — a sampling failure never aborts the render). Returning false
// requests cancellation.
type Progress func(fraction float64, status Status, resources *sysinfo.Snapshot) bool

// Options configures a render.
type Options struct {
	Chain          *eq.Bank       // optional parametric EQ stage, nil to skip
	Plugins        *plugins.Chain // independent (cloned) plugin chain, nil to skip
	OutputChannels int
	TailFrames     int // extra silence appended after input to capture decay tails
	BlockFrames    int // 0 selects DefaultBlockFrames
	SampleResource bool
}

func (o Options) blockFrames() int {
	if o.BlockFrames <= 0 {
		return DefaultBlockFrames
	}
	if o.BlockFrames < MinBlockFrames {
		return MinBlockFrames
	}
	return o.BlockFrames
}

// Render processes src[startSample:startSample+numSamples] (or the whole
// buffer when numSamples is -1) through the configured EQ and plugin
// chain, compensating for the chain's reported latency by prepending L
// silent input samples and discarding the first L output samples, and
// optionally extending the tail by TailFrames of additional silence to let
// the chain fully decay.
func Render(src audiobuffer.PCM, startSample, numSamples int, opts Options, progress Progress) (Result, error) {
	if numSamples < 0 {
		numSamples = src.NumSamples() - startSample
	}
	if startSample < 0 || numSamples < 0 || startSample+numSamples > src.NumSamples() {
		return Result{}, errors.Newf("render: selection [%d,%d) out of range for %d samples", startSample, startSample+numSamples, src.NumSamples()).
			Category(errors.CategoryOutOfRange).Build()
	}

	report := func(frac float64, status Status) bool {
		if progress == nil {
			return true
		}
		var snap *sysinfo.Snapshot
		if opts.SampleResource {
			if s, err := sysinfo.Sample(); err == nil {
				snap = &s
				publishResourceThresholds(s)
			}
		}
		return progress(frac, status, snap)
	}

	if !report(0.0, StatusLoading) {
		return Result{Outcome: Cancelled}, nil
	}

	channels := opts.OutputChannels
	if channels <= 0 {
		channels = src.NumChannels()
	}

	latency := 0
	if opts.Plugins != nil {
		latency = int(opts.Plugins.Latency())
	}

	selection := audiobuffer.PCM{
		Channels:   sliceChannels(src.Channels, startSample, numSamples),
		SampleRate: src.SampleRate,
		BitDepth:   src.BitDepth,
	}
	working := prependSilence(selection, latency)
	working = appendSilence(working, opts.TailFrames)
	working = matchChannelCount(working, channels)

	if !report(0.2, StatusLoading) {
		return Result{Outcome: Cancelled}, nil
	}

	blockFrames := opts.blockFrames()

	if opts.Chain != nil {
		cancelled, err := processInBlocks(working, blockFrames, 0.2, 0.5, StatusDSP, report,
			func(block audiobuffer.PCM) {
				for c := 0; c < block.NumChannels(); c++ {
					opts.Chain.Process(c, block.Channels[c])
				}
			})
		if err != nil {
			return Result{}, err
		}
		if cancelled {
			return Result{Outcome: Cancelled}, nil
		}
	} else if !report(0.5, StatusDSP) {
		return Result{Outcome: Cancelled}, nil
	}

	if opts.Plugins != nil {
		cancelled, err := processInBlocks(working, blockFrames, 0.5, 0.8, StatusPlugins, report,
			func(block audiobuffer.PCM) { opts.Plugins.ProcessBlock(block) })
		if err != nil {
			return Result{}, err
		}
		if cancelled {
			return Result{Outcome: Cancelled}, nil
		}
	} else if !report(0.8, StatusPlugins) {
		return Result{Outcome: Cancelled}, nil
	}

	if !report(0.9, StatusFormatConvert) {
		return Result{Outcome: Cancelled}, nil
	}

	out := discardLatency(working, latency)

	if !report(1.0, StatusSaving) {
		return Result{Outcome: Cancelled}, nil
	}

	return Result{PCM: out, Outcome: Completed}, nil
}

// processInBlocks walks buf in blockFrames chunks, calling fn on each and
// reporting linearly interpolated progress between loFrac and hiFrac.
// Returns true if the caller's progress callback requested cancellation.
func processInBlocks(buf audiobuffer.PCM, blockFrames int, loFrac, hiFrac float64, status Status, report func(float64, Status) bool, fn func(audiobuffer.PCM)) (bool, error) {
	total := buf.NumSamples()
	if total == 0 {
		return !report(hiFrac, status), nil
	}

	for pos := 0; pos < total; pos += blockFrames {
		n := blockFrames
		if pos+n > total {
			n = total - pos
		}
		block := audiobuffer.PCM{
			Channels:   sliceChannels(buf.Channels, pos, n),
			SampleRate: buf.SampleRate,
		}
		fn(block)
		for c := range block.Channels {
			copy(buf.Channels[c][pos:pos+n], block.Channels[c])
		}

		frac := loFrac + (hiFrac-loFrac)*float64(pos+n)/float64(total)
		if !report(frac, status) {
			return true, nil
		}
	}
	return false, nil
}

func sliceChannels(channels [][]float32, start, length int) [][]float32 {
	out := make([][]float32, len(channels))
	for c, ch := range channels {
		out[c] = append([]float32(nil), ch[start:start+length]...)
	}
	return out
}

func prependSilence(pcm audiobuffer.PCM, n int) audiobuffer.PCM {
	if n <= 0 {
		return pcm
	}
	out := audiobuffer.PCM{Channels: make([][]float32, pcm.NumChannels()), SampleRate: pcm.SampleRate, BitDepth: pcm.BitDepth}
	for c, ch := range pcm.Channels {
		buf := make([]float32, n+len(ch))
		copy(buf[n:], ch)
		out.Channels[c] = buf
	}
	return out
}

func appendSilence(pcm audiobuffer.PCM, n int) audiobuffer.PCM {
	if n <= 0 {
		return pcm
	}
	out := audiobuffer.PCM{Channels: make([][]float32, pcm.NumChannels()), SampleRate: pcm.SampleRate, BitDepth: pcm.BitDepth}
	for c, ch := range pcm.Channels {
		buf := make([]float32, len(ch)+n)
		copy(buf, ch)
		out.Channels[c] = buf
	}
	return out
}

func discardLatency(pcm audiobuffer.PCM, n int) audiobuffer.PCM {
	if n <= 0 {
		return pcm
	}
	out := audiobuffer.PCM{Channels: make([][]float32, pcm.NumChannels()), SampleRate: pcm.SampleRate, BitDepth: pcm.BitDepth}
	for c, ch := range pcm.Channels {
		if n >= len(ch) {
			out.Channels[c] = []float32{}
			continue
		}
		out.Channels[c] = append([]float32(nil), ch[n:]...)
	}
	return out
}

// publishResourceThresholds reports a CPU and/or memory ResourceEvent to the
// process-wide event bus when a sample crosses the configured warning or
// critical threshold. A render job is short-lived, so unlike a persistent
// monitor this fires a one-shot event per crossing rather than tracking
// hysteresis/recovery state across samples.
func publishResourceThresholds(s sysinfo.Snapshot) {
	if !events.IsInitialized() || !events.HasActiveConsumers() {
		return
	}
	settings := config.GetSettings()
	cpuWarn, cpuCrit := 80.0, 95.0
	rssWarnMB, rssCritMB := int64(1024), int64(4096)
	if settings != nil {
		if settings.Render.CPUWarnPercent > 0 {
			cpuWarn = settings.Render.CPUWarnPercent
		}
		if settings.Render.CPUCriticalPercent > 0 {
			cpuCrit = settings.Render.CPUCriticalPercent
		}
		if settings.Render.RSSWarnMB > 0 {
			rssWarnMB = settings.Render.RSSWarnMB
		}
		if settings.Render.RSSCriticalMB > 0 {
			rssCritMB = settings.Render.RSSCriticalMB
		}
	}

	bus := events.GetEventBus()
	if bus == nil {
		return
	}

	if sev, ok := severityFor(s.CPUPercent, cpuWarn, cpuCrit); ok {
		bus.TryPublishResource(events.NewResourceEvent(events.ResourceCPU, s.CPUPercent, cpuCrit, sev))
	}

	rssMB := float64(s.RSSBytes) / (1024 * 1024)
	if sev, ok := severityFor(rssMB, float64(rssWarnMB), float64(rssCritMB)); ok {
		bus.TryPublishResource(events.NewResourceEvent(events.ResourceMemory, rssMB, float64(rssCritMB), sev))
	}
}

func severityFor(current, warn, critical float64) (string, bool) {
	switch {
	case current >= critical:
		return events.SeverityCritical, true
	case current >= warn:
		return events.SeverityWarning, true
	default:
		return "", false
	}
}

func matchChannelCount(pcm audiobuffer.PCM, target int) audiobuffer.PCM {
	if pcm.NumChannels() == target || target <= 0 {
		return pcm
	}
	buf := audiobuffer.New(pcm)
	if err := buf.ConvertChannelCount(target); err != nil {
		return pcm
	}
	return buf.Snapshot()
}
