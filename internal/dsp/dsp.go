// Package dsp implements the stateless, allocation-free-where-practical
// signal processing primitives applied to a PCM range: gain, normalisation,
// fades, DC removal, and hard clamping.
package dsp

import (
	"math"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
)

// ApplyGain multiplies every sample across all channels by 10^(db/20).
// Callers should surface a warning (not an error) when db falls outside
// [-100, +40]; this function itself never errors.
func ApplyGain(pcm audiobuffer.PCM, db float64) {
	linear := float32(math.Pow(10, db/20))
	for _, ch := range pcm.Channels {
		for i := range ch {
			ch[i] *= linear
		}
	}
}

// GainOutOfTypicalRange reports whether db falls outside the range that
// callers should warn about before applying.
func GainOutOfTypicalRange(db float64) bool {
	return db < -100 || db > 40
}

// NormaliseMode selects the level measurement used by Normalise.
type NormaliseMode int

const (
	Peak NormaliseMode = iota
	RMS
)

// Normalise measures the current level (peak or RMS), then applies the
// gain delta in dB needed to reach targetDb. A silent buffer is a no-op.
func Normalise(pcm audiobuffer.PCM, targetDb float64, mode NormaliseMode) {
	var currentDb float64
	if mode == Peak {
		currentDb = PeakDb(pcm)
	} else {
		currentDb = RmsDb(pcm)
	}
	if math.IsInf(currentDb, -1) {
		return // silent input: NoOp
	}
	ApplyGain(pcm, targetDb-currentDb)
}

// PeakDb returns 20*log10(peak absolute sample) across all channels, or
// -Inf for a silent buffer.
func PeakDb(pcm audiobuffer.PCM) float64 {
	var peak float32
	for _, ch := range pcm.Channels {
		for _, s := range ch {
			if a := abs32(s); a > peak {
				peak = a
			}
		}
	}
	if peak == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(peak))
}

// RmsDb returns 10*log10(mean(x^2)) across all channels, or -Inf for a
// silent buffer.
func RmsDb(pcm audiobuffer.PCM) float64 {
	var sumSq float64
	var n int
	for _, ch := range pcm.Channels {
		for _, s := range ch {
			sumSq += float64(s) * float64(s)
		}
		n += len(ch)
	}
	if n == 0 || sumSq == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(sumSq/float64(n))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// FadeDirection selects fade-in or fade-out.
type FadeDirection int

const (
	FadeIn FadeDirection = iota
	FadeOut
)

// FadeCurve selects the per-sample gain shape.
type FadeCurve int

const (
	Linear FadeCurve = iota
	Exponential
	Logarithmic
	SCurve
)

// fadeGain returns the multiplier g(x), x in [0,1], for the given
// direction and curve. Fade-out uses inverted shapes so the perceptual
// character of the curve name is preserved across direction.
func fadeGain(x float64, dir FadeDirection, curve FadeCurve) float64 {
	if dir == FadeOut {
		switch curve {
		case Linear:
			return 1 - x
		case Exponential:
			v := 1 - x
			return v * v
		case Logarithmic:
			return 1 - x*x
		case SCurve:
			return 1 - x*x*(3-2*x)
		}
	}
	switch curve {
	case Linear:
		return x
	case Exponential:
		return x * x
	case Logarithmic:
		return 1 - (1-x)*(1-x)
	case SCurve:
		return x * x * (3 - 2*x)
	}
	return x
}

// Fade applies a fade-in or fade-out envelope of the given curve across the
// first/last `samples` of pcm's length, in place, on all channels.
func Fade(pcm audiobuffer.PCM, dir FadeDirection, curve FadeCurve, samples int) {
	n := pcm.NumSamples()
	if samples <= 0 || n == 0 {
		return
	}
	if samples > n {
		samples = n
	}
	for _, ch := range pcm.Channels {
		var base int
		if dir == FadeOut {
			base = n - samples
		}
		for i := 0; i < samples; i++ {
			x := float64(i) / float64(samples-1)
			if samples == 1 {
				x = 0
			}
			g := fadeGain(x, dir, curve)
			ch[base+i] = float32(float64(ch[base+i]) * g)
		}
	}
}

// RemoveDCOffset subtracts each channel's mean sample value from every
// sample in that channel.
func RemoveDCOffset(pcm audiobuffer.PCM) {
	for _, ch := range pcm.Channels {
		if len(ch) == 0 {
			continue
		}
		var sum float64
		for _, s := range ch {
			sum += float64(s)
		}
		mean := float32(sum / float64(len(ch)))
		for i := range ch {
			ch[i] -= mean
		}
	}
}

// ClampToValidRange hard-limits every sample to [-1, +1] in place and
// returns the number of samples that were clipped.
func ClampToValidRange(pcm audiobuffer.PCM) int {
	clipped := 0
	for _, ch := range pcm.Channels {
		for i, s := range ch {
			switch {
			case s > 1:
				ch[i] = 1
				clipped++
			case s < -1:
				ch[i] = -1
				clipped++
			}
		}
	}
	return clipped
}
