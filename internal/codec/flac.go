package codec

import (
	"io"

	flacfmt "github.com/tphakala/flac"

	"github.com/wavecraft/wavecraft/internal/audiobuffer"
	"github.com/wavecraft/wavecraft/internal/errors"
)

// decodeFLAC reads a FLAC stream frame-by-frame, de-interleaving each
// frame's subframes directly into per-channel float32 slices. FLAC is
// decode-only: the corpus carries no encoder, so Encode always targets WAV.
func decodeFLAC(r io.Reader) (audiobuffer.PCM, Metadata, error) {
	stream, err := flacfmt.New(r)
	if err != nil {
		return audiobuffer.PCM{}, Metadata{}, errors.New(err).Category(errors.CategoryDecodeFailed).Build()
	}

	numChannels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	maxVal := float32(int64(1) << uint(bitDepth-1))

	channels := make([][]float32, numChannels)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return audiobuffer.PCM{}, Metadata{}, errors.New(err).Category(errors.CategoryDecodeFailed).Build()
		}
		for c, sub := range frame.Subframes {
			if c >= numChannels {
				break
			}
			for _, s := range sub.Samples {
				channels[c] = append(channels[c], float32(s)/maxVal)
			}
		}
	}

	pcm := audiobuffer.PCM{
		Channels:   channels,
		SampleRate: float64(stream.Info.SampleRate),
		BitDepth:   bitDepth,
	}
	return pcm, Metadata{}, nil
}
