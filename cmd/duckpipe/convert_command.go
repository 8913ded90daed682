// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/duckpipe"
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/formats/wav"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		rate     int
		channels int
		format   string
	)

	cmd := &cobra.Command{
		Use:   "convert IN OUT.wav",
		Short: "Decode and resample a file into a 16-bit WAV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if rate <= 0 {
				rate = cfg.Output.SampleRate
			}
			if channels <= 0 {
				channels = cfg.Output.Channels
			}

			hint, err := audio.ParseContainer(format)
			if err != nil {
				return err
			}
			if hint == audio.ContainerNone {
				hint = audio.ContainerFromPath(args[0])
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			samples, in, err := duckpipe.Transcode(ctx.codecs(), data, hint, rate, channels)
			if err != nil {
				return fmt.Errorf("convert %s: %w", args[0], err)
			}

			out := audio.StreamInfo{Channels: channels, BitsPerSample: 16, SampleRate: rate}
			if err := writeWAV(args[1], out, samples); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%v) -> %s (%v), %v\n",
				args[0], in, args[1], out, duration(len(samples), out).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVarP(&rate, "rate", "r", 0, "Output sample rate (default: output.sample_rate)")
	cmd.Flags().IntVar(&channels, "channels", 0, "Output channels, 1 or 2 (default: output.channels)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input container (wav, mp3, flac, ogg, aiff); sniffed when empty")

	return cmd
}

func writeWAV(path string, info audio.StreamInfo, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := wav.Encode(w, info, samples); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// duration converts a sample count in format info to playing time.
func duration(samples int, info audio.StreamInfo) time.Duration {
	perSecond := info.SampleRate * info.Channels
	if perSecond == 0 {
		return 0
	}

	return time.Duration(float64(samples) / float64(perSecond) * float64(time.Second))
}
