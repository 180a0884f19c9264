package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHandlersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List registered handlers in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.Dispatcher().Sorted()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no handlers registered")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tID\tPRIORITY\tTYPE")
			types := make(map[string]string)
			for _, hc := range a.Config().Handlers {
				types[hc.ID] = hc.Type
			}
			for i, e := range entries {
				typ := types[e.ID]
				if typ == "" {
					typ = "display"
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, e.ID, e.Priority, typ)
			}
			return tw.Flush()
		},
	}
}
