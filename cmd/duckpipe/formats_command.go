// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			containers := ctx.codecs().Containers()

			rows := make([][]string, 0, len(containers))
			for i, ct := range containers {
				rows = append(rows, []string{fmt.Sprint(i + 1), ct.String()})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Container"}, rows,
				[]columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
}
