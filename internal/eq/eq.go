package eq

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// MaxBands is the maximum number of bands a Bank may hold.
const MaxBands = 20

// Band is one parametric EQ band.
type Band struct {
	Freq    float64 // 20..20000 Hz
	GainDb  float64 // -24..+24 dB; ignored by cut/notch/bandpass types
	Q       float64 // 0.1..18
	Type    BandType
	Enabled bool
}

// FilterChain applies an ordered list of Filters to a buffer in sequence.
type FilterChain struct {
	filters []*Filter
}

// NewFilterChain returns an empty chain.
func NewFilterChain() *FilterChain {
	return &FilterChain{}
}

// AddFilter appends a filter to the chain.
func (c *FilterChain) AddFilter(f *Filter) {
	c.filters = append(c.filters, f)
}

// ApplyBatch runs every filter in the chain over the given channel's samples,
// in place.
func (c *FilterChain) ApplyBatch(channel int, input []float32) {
	for _, f := range c.filters {
		if f.IsZero() {
			continue
		}
		f.ApplyBatch(channel, input)
	}
}

// Bank is the parametric EQ's real-time processing surface: a per-channel
// FilterChain built from a Band list, with lock-free coefficient handoff
// between a UI thread writing pending parameters and an audio thread
// consuming them without blocking.
//
// Concurrency: the UI writes a new parameter snapshot into pending and
// atomically flips dirty. The audio thread, at the start of its next
// process() call, attempts a non-blocking acquire of paramMu; on success it
// rebuilds chains from pending and clears dirty; on contention it proceeds
// with the previous chains and retries next block. Neither side ever blocks
// unboundedly.
type Bank struct {
	sampleRate float64
	numChans   int

	dirty   atomic.Bool
	paramMu sync.Mutex // UI-side write lock and audio-side try-lock

	pending []Band
	bands   []Band // last-applied snapshot, audio-thread owned

	chains    []*FilterChain // one per channel
	outputDb  atomic.Int64   // gain in millidecibels (dB*1000) for lock-free read
}

// NewBank returns an unprepared Bank.
func NewBank() *Bank {
	return &Bank{}
}

// Prepare resets filter state and allocates per-channel chains. maxBlockSize
// is accepted for interface symmetry with other real-time components; the
// chain itself is allocation-free per block regardless of block size.
func (b *Bank) Prepare(sampleRate float64, numChannels int, _ int) {
	b.sampleRate = sampleRate
	b.numChans = numChannels
	b.chains = make([]*FilterChain, numChannels)
	for c := range b.chains {
		b.chains[c] = NewFilterChain()
	}
}

// SetParameters replaces the band list. Safe to call from the UI thread
// concurrently with Process running on the audio thread.
func (b *Bank) SetParameters(bands []Band) error {
	if len(bands) > MaxBands {
		return errors.Newf("eq: %d bands exceeds max %d", len(bands), MaxBands).
			Category(errors.CategoryValidation).
			Context("bandCount", len(bands)).
			Build()
	}
	for _, band := range bands {
		if band.Freq < 20 || band.Freq > 20000 {
			return errors.Newf("eq: band freq %g out of range [20,20000]", band.Freq).
				Category(errors.CategoryOutOfRange).Build()
		}
		if band.Q < 0.1 || band.Q > 18 {
			return errors.Newf("eq: band q %g out of range [0.1,18]", band.Q).
				Category(errors.CategoryOutOfRange).Build()
		}
		if band.GainDb < -24 || band.GainDb > 24 {
			return errors.Newf("eq: band gain %g out of range [-24,24]", band.GainDb).
				Category(errors.CategoryOutOfRange).Build()
		}
	}

	b.paramMu.Lock()
	b.pending = append([]Band(nil), bands...)
	b.paramMu.Unlock()
	b.dirty.Store(true)
	return nil
}

// SetOutputGainDb sets the post-bank output gain stage.
func (b *Bank) SetOutputGainDb(db float64) {
	b.outputDb.Store(int64(db * 1000))
}

func gainLinear(milliDb int64) float32 {
	db := float64(milliDb) / 1000
	return float32(dbToLinear(db))
}

// Process applies the bank to one block of samples per channel. It never
// blocks: if a parameter update is pending, it attempts a try-lock; on
// contention it uses the previous coefficients and will retry on the next
// call. Blocks with no pending update do not allocate; the block that picks
// up an update copies the band list and rebuilds every channel's chain (all
// bands, not only changed ones), which allocates and resets filter state.
func (b *Bank) Process(channel int, block []float32) {
	if b.dirty.Load() {
		if b.paramMu.TryLock() {
			b.bands = append([]Band(nil), b.pending...)
			b.dirty.Store(false)
			b.rebuildChains()
			b.paramMu.Unlock()
		}
	}
	if channel < len(b.chains) {
		b.chains[channel].ApplyBatch(channel, block)
	}
	gain := gainLinear(b.outputDb.Load())
	if gain != 1 {
		for i := range block {
			block[i] *= gain
		}
	}
}

// rebuildChains recomputes every channel's filter chain from b.bands. Must
// be called with paramMu held.
func (b *Bank) rebuildChains() {
	for c := 0; c < b.numChans; c++ {
		chain := NewFilterChain()
		for _, band := range b.bands {
			if !band.Enabled {
				continue
			}
			a0, a1, a2, b0, b1, b2 := newBiquad(band.Type, b.sampleRate, band.Freq, band.Q, band.GainDb)
			chain.AddFilter(NewFilter(a0, a1, a2, b0, b1, b2, b.numChans))
		}
		b.chains[c] = chain
	}
}

// FrequencyResponse computes the bank's combined magnitude response in dB
// at each requested frequency, from the currently-applied (not pending)
// coefficients, for UI plotting.
func (b *Bank) FrequencyResponse(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	if len(b.chains) == 0 {
		return out
	}
	chain := b.chains[0]
	for i, f := range freqs {
		var totalDb float64
		for _, filt := range chain.filters {
			totalDb += filt.MagnitudeDb(f, b.sampleRate)
		}
		out[i] = totalDb
	}
	return out
}

func dbToLinear(db float64) float64 {
	if db == 0 {
		return 1
	}
	return math.Pow(10, db/20)
}
