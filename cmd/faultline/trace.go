package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/faultline/internal/trace"
)

func newTraceCmd() *cobra.Command {
	var start, depth int

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print a reconstructed trace of the current call stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frames := trace.Capture(0)
			fmt.Fprintln(cmd.OutOrStdout(), trace.NewReconstructor(depth).Reconstruct(start, frames))
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "start", trace.DefaultStart, "Number given to the first frame")
	cmd.Flags().IntVar(&depth, "max-depth", trace.DefaultMaxDepth, "Maximum nesting depth")
	return cmd
}
