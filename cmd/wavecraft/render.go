package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavecraft/wavecraft/internal/codec"
	"github.com/wavecraft/wavecraft/internal/document"
	"github.com/wavecraft/wavecraft/internal/render"
	"github.com/wavecraft/wavecraft/internal/sysinfo"
)

func renderCommand() *cobra.Command {
	var (
		startSample int
		numSamples  int
		bitDepth    int
		blockFrames int
	)

	cmd := &cobra.Command{
		Use:   "render [input] [output]",
		Short: "Render a document's selection (or whole file) through its EQ and plugin chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Load(args[0], nil)
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}

			if numSamples == 0 {
				numSamples = -1
			}

			opts := render.Options{
				Chain:          doc.EQ,
				Plugins:        doc.Plugins,
				OutputChannels: doc.Buffer.NumChannels(),
				BlockFrames:    blockFrames,
				SampleResource: true,
			}

			result, err := render.Render(doc.Buffer.Snapshot(), startSample, numSamples, opts, reportToStdout)
			fmt.Println()
			if err != nil {
				return err
			}
			if result.Outcome == render.Cancelled {
				return fmt.Errorf("render cancelled")
			}

			return codec.Encode(result.PCM, args[1], codec.WAV, bitDepth, 0, doc.Metadata)
		},
	}

	cmd.Flags().IntVar(&startSample, "start", 0, "first sample of the selection to render")
	cmd.Flags().IntVar(&numSamples, "length", 0, "samples to render, 0 = to end of buffer")
	cmd.Flags().IntVar(&bitDepth, "bitdepth", 16, "output bit depth")
	cmd.Flags().IntVar(&blockFrames, "block-frames", render.DefaultBlockFrames, "render block granularity")
	return cmd
}

func reportToStdout(fraction float64, status render.Status, res *sysinfo.Snapshot) bool {
	if res != nil {
		fmt.Printf("\r%-16s %5.1f%%  cpu=%.1f%% rss=%dMB", status, fraction*100, res.CPUPercent, res.RSSBytes/(1<<20))
	} else {
		fmt.Printf("\r%-16s %5.1f%%", status, fraction*100)
	}
	return true
}
