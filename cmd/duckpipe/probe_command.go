// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ik5/duckpipe"
	"github.com/ik5/duckpipe/audio"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Show the container and audio format of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			failed := 0

			for _, path := range args {
				row, err := probeFile(ctx.codecs(), path)
				if err != nil {
					failed++
					row = []string{path, "-", "-", "-", "-", err.Error()}
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Container", "Rate", "Channels", "Bits", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be probed", failed, len(args))
			}
			return nil
		},
	}
}

func probeFile(reg *audio.Registry, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	hint := audio.SniffContainer(data)
	if hint == audio.ContainerNone {
		hint = audio.ContainerFromPath(path)
	}

	ct, info, err := duckpipe.Probe(reg, data, hint)
	if err != nil {
		return nil, err
	}

	return []string{
		path,
		ct.String(),
		strconv.Itoa(info.SampleRate),
		strconv.Itoa(info.Channels),
		strconv.Itoa(info.BitsPerSample),
		"",
	}, nil
}
