// Package stripsilence detects loud runs in a PCM buffer's mono mixdown and
// emits a sorted region list bounding them, with pre/post roll and
// minimum-duration merging. It is a pure function of its inputs: identical
// inputs always produce identical outputs.
package stripsilence

import (
	"fmt"
	"math"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/regions"
)

// Params configures the detection pass.
type Params struct {
	ThresholdDb float64
	MinRegionMs float64
	MinSilenceMs float64
	PreRollMs    float64
	PostRollMs   float64
}

type run struct {
	start, end int // end-exclusive
	loud       bool
}

// Detect scans pcm's mono mixdown and returns the sorted region list
// bounding surviving loud runs, named "Region 1", "Region 2", … in
// start-order.
func Detect(pcm audiobuffer.PCM, p Params) []regions.Region {
	n := pcm.NumSamples()
	if n == 0 {
		return nil
	}
	sr := pcm.SampleRate
	if sr <= 0 {
		sr = 48000
	}

	threshold := float32(math.Pow(10, p.ThresholdDb/20))
	runs := classify(pcm, threshold)
	runs = mergeShortSilences(runs, msToSamples(p.MinSilenceMs, sr))
	runs = discardShortLoudRuns(runs, msToSamples(p.MinRegionMs, sr))

	preRoll := msToSamples(p.PreRollMs, sr)
	postRoll := msToSamples(p.PostRollMs, sr)

	var out []regions.Region
	count := 0
	for _, r := range runs {
		if !r.loud {
			continue
		}
		count++
		start := r.start - preRoll
		if start < 0 {
			start = 0
		}
		end := r.end + postRoll
		if end > n {
			end = n
		}
		out = append(out, regions.Region{
			Name:        fmt.Sprintf("Region %d", count),
			StartSample: int64(start),
			EndSample:   int64(end),
		})
	}
	return out
}

func msToSamples(ms, sampleRate float64) int {
	if ms <= 0 {
		return 0
	}
	return int(ms / 1000 * sampleRate)
}

// classify walks the mono mixdown (sum of channels / C) and collapses it
// into alternating loud/silent runs.
func classify(pcm audiobuffer.PCM, threshold float32) []run {
	n := pcm.NumSamples()
	c := pcm.NumChannels()
	if c == 0 || n == 0 {
		return nil
	}

	isLoud := func(i int) bool {
		var sum float32
		for _, ch := range pcm.Channels {
			sum += ch[i]
		}
		mono := sum / float32(c)
		if mono < 0 {
			mono = -mono
		}
		return mono >= threshold
	}

	var runs []run
	curStart := 0
	curLoud := isLoud(0)
	for i := 1; i < n; i++ {
		loud := isLoud(i)
		if loud != curLoud {
			runs = append(runs, run{start: curStart, end: i, loud: curLoud})
			curStart = i
			curLoud = loud
		}
	}
	runs = append(runs, run{start: curStart, end: n, loud: curLoud})
	return runs
}

// mergeShortSilences folds any silent run shorter than minSamples into its
// surrounding loud runs by reclassifying it loud, then recombines adjacent
// same-classification runs.
func mergeShortSilences(runs []run, minSamples int) []run {
	for i := range runs {
		if !runs[i].loud && runs[i].end-runs[i].start < minSamples {
			runs[i].loud = true
		}
	}
	return coalesceAdjacent(runs)
}

// discardShortLoudRuns reclassifies any loud run shorter than minSamples as
// silent, then recombines.
func discardShortLoudRuns(runs []run, minSamples int) []run {
	for i := range runs {
		if runs[i].loud && runs[i].end-runs[i].start < minSamples {
			runs[i].loud = false
		}
	}
	return coalesceAdjacent(runs)
}

func coalesceAdjacent(runs []run) []run {
	if len(runs) == 0 {
		return runs
	}
	out := []run{runs[0]}
	for _, r := range runs[1:] {
		last := &out[len(out)-1]
		if last.loud == r.loud {
			last.end = r.end
			continue
		}
		out = append(out, r)
	}
	return out
}
