package codec

import "github.com/wavecraft/wavecraft/internal/audiobuffer"

// Resample converts pcm to targetRate using linear interpolation between
// adjacent samples. This is the Open Question 3 resolution: linear
// interpolation is cheap and branch-free, with the sample index computed
// directly from the rate ratio rather than an accumulated phase, so it
// never drifts over long buffers. A polyphase resampler can replace this
// function's body without changing its signature if audio quality ever
// demands it.
func Resample(pcm audiobuffer.PCM, targetRate float64) audiobuffer.PCM {
	if targetRate <= 0 || targetRate == pcm.SampleRate || pcm.NumSamples() == 0 {
		return pcm
	}

	ratio := pcm.SampleRate / targetRate
	srcLen := pcm.NumSamples()
	dstLen := int(float64(srcLen) / ratio)

	out := audiobuffer.PCM{
		Channels:   make([][]float32, pcm.NumChannels()),
		SampleRate: targetRate,
		BitDepth:   pcm.BitDepth,
	}
	for c, src := range pcm.Channels {
		dst := make([]float32, dstLen)
		for i := range dst {
			srcPos := float64(i) * ratio
			i0 := int(srcPos)
			frac := float32(srcPos - float64(i0))
			if i0 >= srcLen-1 {
				dst[i] = src[srcLen-1]
				continue
			}
			dst[i] = src[i0] + (src[i0+1]-src[i0])*frac
		}
		out.Channels[c] = dst
	}
	return out
}
