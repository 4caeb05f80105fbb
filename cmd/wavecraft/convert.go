package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavecraft/wavecraft/internal/codec"
)

func convertCommand() *cobra.Command {
	var (
		format     string
		bitDepth   int
		sampleRate float64
		quality    int
	)

	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Decode an audio file and re-encode it, optionally resampling",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pcm, meta, err := codec.Decode(args[0])
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}

			if err := codec.Encode(pcm, args[1], codec.Format(format), bitDepth, sampleRate, meta); err != nil {
				return fmt.Errorf("encoding %s: %w", args[1], err)
			}
			fmt.Printf("wrote %s (%d channels, %d samples)\n", args[1], pcm.NumChannels(), pcm.NumSamples())
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(codec.WAV), "output format: wav|flac|ogg")
	cmd.Flags().IntVar(&bitDepth, "bitdepth", 16, "output bit depth")
	cmd.Flags().Float64Var(&sampleRate, "samplerate", 0, "target sample rate, 0 = keep source rate")
	cmd.Flags().IntVar(&quality, "quality", 5, "encoder quality, 0..10; ignored, no supported encoder takes a quality setting")
	return cmd
}
