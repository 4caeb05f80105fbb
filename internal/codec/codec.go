// Package codec adapts third-party audio file libraries to the document
// model's float32 non-interleaved PCM shape: decode into audiobuffer.PCM,
// encode back out with an optional sample-rate conversion.
package codec

import (
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/errors"
)

// Format identifies an on-disk audio container.
type Format string

const (
	WAV  Format = "wav"
	FLAC Format = "flac"
	OGG  Format = "ogg"
)

// Metadata carries the handful of tags the editor round-trips; unknown
// chunks are dropped rather than rejected (decode is lenient per spec).
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ErrUnsupportedFormat is returned by Decode/Encode for formats with no
// corpus-carried codec. OGG Vorbis is the only one at present: the format
// constant and dispatch slot exist so a future codec can be wired in
// without changing the adapter's contract.
var ErrUnsupportedFormat = errors.Newf("codec: unsupported format").
	Category(errors.CategoryDecodeFailed).Build()

// Decode reads an audio file and returns its PCM content plus metadata.
// Bit depth and channel count come from the file itself.
func Decode(path string) (audiobuffer.PCM, Metadata, error) {
	return DecodeWithProgress(path, nil)
}

// DecodeWithProgress behaves like Decode, additionally reporting the
// loading stage's fraction read so far through report. report is polled
// from a background goroutine while the decode runs; returning false asks
// the read to stop early by closing the underlying file, after which the
// decoder returns an error.
func DecodeWithProgress(path string, report func(float64) bool) (audiobuffer.PCM, Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return audiobuffer.PCM{}, Metadata{}, errors.New(err).Category(errors.CategoryFileIO).
			Context("path", path).Build()
	}
	defer f.Close()

	pr, err := newProgressReader(f)
	if err != nil {
		return audiobuffer.PCM{}, Metadata{}, err
	}

	stop := make(chan struct{})
	if report != nil {
		go pollProgress(pr, report, stop, f)
	}

	var (
		pcm  audiobuffer.PCM
		meta Metadata
	)
	switch formatOf(path) {
	case WAV:
		pcm, meta, err = decodeWAV(pr)
	case FLAC:
		pcm, meta, err = decodeFLAC(pr)
	default:
		close(stop)
		return audiobuffer.PCM{}, Metadata{}, ErrUnsupportedFormat
	}
	close(stop)
	return pcm, meta, err
}

func pollProgress(pr *progressReader, report func(float64) bool, stop chan struct{}, f *os.File) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !report(pr.Fraction()) {
				_ = f.Close()
				return
			}
		}
	}
}

// Encode writes pcm to path in the given format at bitDepth, resampling
// first if targetSampleRate differs from pcm's own rate (0 = no
// conversion). There is no quality setting: neither the WAV encoder nor the
// FLAC path (which writes WAV) has a variable-quality mode.
func Encode(pcm audiobuffer.PCM, path string, format Format, bitDepth int, targetSampleRate float64, meta Metadata) error {
	if targetSampleRate > 0 && targetSampleRate != pcm.SampleRate {
		pcm = Resample(pcm, targetSampleRate)
	}

	switch format {
	case WAV:
		return encodeWAV(pcm, path, bitDepth)
	case FLAC:
		// No FLAC encoder exists anywhere in the retrieved corpus; fall
		// back to WAV with the same basename, matching SPEC_FULL's
		// documented limitation rather than fabricating an encoder.
		return encodeWAV(pcm, path, bitDepth)
	default:
		return ErrUnsupportedFormat
	}
}

func formatOf(path string) Format {
	for i := len(path) - 1; i >= 0 && path[i] != '/' && path[i] != '\\'; i-- {
		if path[i] != '.' {
			continue
		}
		switch path[i+1:] {
		case "wav", "wave":
			return WAV
		case "flac":
			return FLAC
		case "ogg", "oga":
			return OGG
		}
		return Format(path[i+1:])
	}
	return ""
}

func decodeWAV(r io.Reader) (audiobuffer.PCM, Metadata, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return audiobuffer.PCM{}, Metadata{}, errors.Newf("codec: not a valid WAV file").
			Category(errors.CategoryDecodeFailed).Build()
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audiobuffer.PCM{}, Metadata{}, errors.New(err).Category(errors.CategoryDecodeFailed).Build()
	}

	numChannels := buf.Format.NumChannels
	bitDepth := int(dec.BitDepth)
	maxVal := float32(int64(1) << uint(bitDepth-1))

	frames := len(buf.Data) / numChannels
	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i, sample := range buf.Data {
		channels[i%numChannels][i/numChannels] = float32(sample) / maxVal
	}

	pcm := audiobuffer.PCM{
		Channels:   channels,
		SampleRate: float64(buf.Format.SampleRate),
		BitDepth:   bitDepth,
	}
	return pcm, Metadata{}, nil
}

func encodeWAV(pcm audiobuffer.PCM, path string, bitDepth int) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Context("path", path).Build()
	}

	enc := wav.NewEncoder(out, int(pcm.SampleRate), bitDepth, pcm.NumChannels(), 1)
	maxVal := float64(int64(1)<<uint(bitDepth-1)) - 1

	frames := pcm.NumSamples()
	data := make([]int, frames*pcm.NumChannels())
	for c, ch := range pcm.Channels {
		for i, s := range ch {
			v := float64(s) * maxVal
			if v > maxVal {
				v = maxVal
			} else if v < -maxVal-1 {
				v = -maxVal - 1
			}
			data[i*pcm.NumChannels()+c] = int(v)
		}
	}

	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: pcm.NumChannels(), SampleRate: int(pcm.SampleRate)},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(intBuf); err != nil {
		_ = out.Close()
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}
	return out.Close()
}
