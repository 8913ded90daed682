// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/duckpipe/output"
	"github.com/ik5/duckpipe/player"
)

type playFlags struct {
	media      string
	announce   string
	announceAt time.Duration
	duck       float64
	fade       time.Duration
	volume     float64
	out        string
	realtime   bool
	stats      bool
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var flags playFlags

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Mix media and an announcement into a file or stdout",
		Example: `  duckpipe play --media music.mp3 --announce doorbell.wav --announce-at 2s --out mix.wav
  duckpipe play --media https://example.com/stream.mp3 --out - | aplay -f S16_LE -r 16000 -c 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.media) == "" && strings.TrimSpace(flags.announce) == "" {
				return errors.New("nothing to play: set --media and/or --announce")
			}
			return runPlay(cmd, ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.media, "media", "", "Media source (path, file:// or http(s):// URL)")
	cmd.Flags().StringVar(&flags.announce, "announce", "", "Announcement source")
	cmd.Flags().DurationVar(&flags.announceAt, "announce-at", 0, "Delay before the announcement starts")
	cmd.Flags().Float64Var(&flags.duck, "duck", -1, "Duck media to this ratio at start (0..1)")
	cmd.Flags().DurationVar(&flags.fade, "fade", -1, "Fade duration for --duck (default: ducking.fade)")
	cmd.Flags().Float64Var(&flags.volume, "volume", -1, "Output volume (0..1)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "duckpipe.wav", "Output WAV file, or - for raw PCM on stdout")
	cmd.Flags().BoolVar(&flags.realtime, "realtime", true, "Write no faster than real time")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "Print per-stage statistics when done")

	return cmd
}

func runPlay(cmd *cobra.Command, cctx *commandContext, flags playFlags) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	info := outputInfo(cfg)

	var (
		sink   output.Sink
		closer io.Closer
	)
	if flags.out == "-" {
		sink = output.NewRaw(cmd.OutOrStdout(), cfg.Buffers.SpeakerChunkBytes)
	} else {
		w, err := output.CreateWAV(flags.out, info)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		sink, closer = w, w
	}
	if flags.realtime {
		sink = output.NewPaced(sink, info, 0, nil)
	}

	p, err := player.New(playerOptions(cfg, sink, cctx.codecs(), logger))
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runCtx, cancelRun := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	err = drive(sigCtx, p, flags, cfg.Ducking.Fade.Std())
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted, stopping")
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Timing.StopTimeout.Std())
		p.StopMedia(stopCtx)
		p.StopAnnouncement(stopCtx)
		p.WaitDrained(stopCtx)
		cancel()
	}

	cancelRun()
	if runErr := <-done; runErr != nil && err == nil {
		err = runErr
	}
	if closer != nil {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}

	if flags.stats {
		fmt.Fprintln(cmd.ErrOrStderr(), statsTable(p))
	}
	if err == nil {
		err = p.Status().Err
	}

	return err
}

// drive issues the requested commands and waits for playback to finish.
func drive(ctx context.Context, p *player.Player, flags playFlags, defaultFade time.Duration) error {
	if flags.volume >= 0 {
		if err := p.SetVolume(ctx, flags.volume); err != nil {
			return err
		}
	}
	if flags.duck >= 0 {
		fade := flags.fade
		if fade < 0 {
			fade = defaultFade
		}
		if err := p.Duck(ctx, flags.duck, fade); err != nil {
			return err
		}
	}

	if flags.media != "" {
		if err := p.PlayMedia(ctx, descriptor(flags.media)); err != nil {
			return err
		}
	}

	if flags.announce != "" {
		if flags.announceAt > 0 {
			select {
			case <-time.After(flags.announceAt):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := p.Announce(ctx, descriptor(flags.announce)); err != nil {
			return err
		}
	}

	return p.WaitDrained(ctx)
}

func statsTable(p *player.Player) string {
	stats := p.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := stats[name]
		rows = append(rows, []string{
			name,
			strconv.FormatUint(s.Sessions, 10),
			strconv.FormatUint(s.Bytes, 10),
			strconv.FormatUint(s.Warnings, 10),
			strconv.FormatUint(s.Retries, 10),
			strconv.FormatUint(s.DroppedEvents, 10),
		})
	}

	return renderTable(
		[]string{"Stage", "Sessions", "Bytes", "Warnings", "Retries", "Dropped events"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}
