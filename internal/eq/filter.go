// Package eq implements the parametric EQ: a bank of biquad IIR filters, one
// per band per channel, computed with the standard audio-cookbook formulas,
// followed by an output-gain stage.
package eq

import "math"

// BandType selects the biquad topology used to realise a band.
type BandType int

const (
	Bell BandType = iota
	LowShelf
	HighShelf
	LowCut
	HighCut
	Notch
	Bandpass
)

// Filter is a single biquad section with precomputed normalised coefficients
// and per-channel state (Direct Form I).
type Filter struct {
	b0a0, b1a0, b2a0 float64
	a1a0, a2a0       float64

	in1, in2, out1, out2 []float64
}

// NewFilter builds a Filter from raw (unnormalised) biquad coefficients,
// allocating per-channel state for numChannels channels.
func NewFilter(a0, a1, a2, b0, b1, b2 float64, numChannels int) *Filter {
	f := &Filter{
		b0a0: b0 / a0, b1a0: b1 / a0, b2a0: b2 / a0,
		a1a0: a1 / a0, a2a0: a2 / a0,
		in1:  make([]float64, numChannels),
		in2:  make([]float64, numChannels),
		out1: make([]float64, numChannels),
		out2: make([]float64, numChannels),
	}
	return f
}

// IsZero reports whether the filter is an identity pass-through (no-op
// coefficients), used to skip processing for disabled/degenerate bands.
func (f *Filter) IsZero() bool {
	return f.b0a0 == 1 && f.b1a0 == 0 && f.b2a0 == 0 && f.a1a0 == 0 && f.a2a0 == 0
}

// ApplyBatch filters input in place for the given channel index.
func (f *Filter) ApplyBatch(channel int, input []float32) {
	in1, in2, out1, out2 := f.in1[channel], f.in2[channel], f.out1[channel], f.out2[channel]
	for i, x := range input {
		xf := float64(x)
		y := f.b0a0*xf + f.b1a0*in1 + f.b2a0*in2 - f.a1a0*out1 - f.a2a0*out2
		in2, in1 = in1, xf
		out2, out1 = out1, y
		input[i] = float32(y)
	}
	f.in1[channel], f.in2[channel], f.out1[channel], f.out2[channel] = in1, in2, out1, out2
}

// MagnitudeDb returns the filter's magnitude response in dB at freq, given
// sampleRate, evaluated directly from the normalised coefficients.
func (f *Filter) MagnitudeDb(freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	cosw, sinw := math.Cos(w), math.Sin(w)
	cos2w, sin2w := math.Cos(2*w), math.Sin(2*w)

	numRe := f.b0a0 + f.b1a0*cosw + f.b2a0*cos2w
	numIm := -f.b1a0*sinw - f.b2a0*sin2w
	denRe := 1 + f.a1a0*cosw + f.a2a0*cos2w
	denIm := -f.a1a0*sinw - f.a2a0*sin2w

	numMag := math.Hypot(numRe, numIm)
	denMag := math.Hypot(denRe, denIm)
	if denMag == 0 {
		return 0
	}
	return 20 * math.Log10(numMag/denMag)
}

// newBiquad computes RBJ audio-cookbook biquad coefficients for the given
// band type and parameters, returning raw (unnormalised) a0,a1,a2,b0,b1,b2.
// Band types for which gain has no effect (cuts, notch, bandpass) ignore the
// gainDb argument entirely.
func newBiquad(bandType BandType, sampleRate, freq, q, gainDb float64) (a0, a1, a2, b0, b1, b2 float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)
	alpha := sinw0 / (2 * q)
	A := math.Pow(10, gainDb/40)

	switch bandType {
	case Bell:
		b0 = 1 + alpha*A
		b1 = -2 * cosw0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw0
		a2 = 1 - alpha/A
	case LowShelf:
		sq := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cosw0 + sq)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - sq)
		a0 = (A + 1) + (A-1)*cosw0 + sq
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - sq
	case HighShelf:
		sq := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cosw0 + sq)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - sq)
		a0 = (A + 1) - (A-1)*cosw0 + sq
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - sq
	case LowCut: // high-pass
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case HighCut: // low-pass
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}
	return
}

// NewLowPass returns a HighCut (low-pass: "cut the highs") filter, a
// convenience constructor retained for direct use outside band-list driven
// EQ, matching the naming the corpus's filter helpers use.
func NewLowPass(sampleRate, freq, q float64, numChannels int) *Filter {
	a0, a1, a2, b0, b1, b2 := newBiquad(HighCut, sampleRate, freq, q, 0)
	return NewFilter(a0, a1, a2, b0, b1, b2, numChannels)
}

// NewHighPass mirrors NewLowPass for the LowCut topology.
func NewHighPass(sampleRate, freq, q float64, numChannels int) *Filter {
	a0, a1, a2, b0, b1, b2 := newBiquad(LowCut, sampleRate, freq, q, 0)
	return NewFilter(a0, a1, a2, b0, b1, b2, numChannels)
}

// NewBandPass builds a constant skirt-gain bandpass filter.
func NewBandPass(sampleRate, freq, q float64, numChannels int) *Filter {
	a0, a1, a2, b0, b1, b2 := newBiquad(Bandpass, sampleRate, freq, q, 0)
	return NewFilter(a0, a1, a2, b0, b1, b2, numChannels)
}

// NewPeaking builds a bell/peaking filter at the given gain in dB.
func NewPeaking(sampleRate, freq, q, gainDb float64, numChannels int) *Filter {
	a0, a1, a2, b0, b1, b2 := newBiquad(Bell, sampleRate, freq, q, gainDb)
	return NewFilter(a0, a1, a2, b0, b1, b2, numChannels)
}
