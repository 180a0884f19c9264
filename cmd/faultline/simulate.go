package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/faultline/internal/fault"
)

type simulateOptions struct {
	severity string
	message  string
	file     string
	line     int
	panic    bool
	uncaught bool
	fatal    bool
}

func newSimulateCmd(flags *globalFlags) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Push a synthetic fault through the pipeline",
		Long: `simulate raises one fault through the configured pipeline and reports
whether a handler claimed it.

By default the fault is reported as a recoverable fault. --uncaught routes it
as an uncaught error, --panic raises it as a recovered panic, and --fatal
records it as an aborting fault that is reported at shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.severity, "severity", "s", "Warning", "Severity name (e.g. Error, UserWarning, Deprecated)")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "simulated fault", "Fault message")
	cmd.Flags().StringVar(&opts.file, "file", "", "Source file of the fault")
	cmd.Flags().IntVar(&opts.line, "line", 0, "Source line of the fault")
	cmd.Flags().BoolVar(&opts.panic, "panic", false, "Raise the fault as a panic")
	cmd.Flags().BoolVar(&opts.uncaught, "uncaught", false, "Report the fault as an uncaught error")
	cmd.Flags().BoolVar(&opts.fatal, "fatal", false, "Record the fault as fatal and report it at shutdown")
	cmd.MarkFlagsMutuallyExclusive("panic", "uncaught", "fatal")

	return cmd
}

func runSimulate(cmd *cobra.Command, flags *globalFlags, opts *simulateOptions) error {
	sev, err := fault.ParseSeverity(opts.severity)
	if err != nil {
		return err
	}

	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	ic := a.Interceptor()
	out := cmd.OutOrStdout()

	switch {
	case opts.panic:
		ex := fault.NewException(sev, opts.message).WithLocation(opts.file, opts.line)
		_, handled := ic.Try(func() { panic(ex) })
		report(out, handled)
		return nil

	case opts.uncaught:
		ex := fault.NewException(sev, opts.message).WithLocation(opts.file, opts.line)
		report(out, ic.Uncaught(ex))
		return nil

	case opts.fatal:
		ic.Fatal(sev, opts.message, opts.file, opts.line)
		if err := a.Close(); err != nil {
			return err
		}
		fmt.Fprintln(out, "fatal fault reported at shutdown")
		return nil
	}

	handled, err := ic.Report(sev, opts.message, opts.file, opts.line)
	if err != nil {
		fmt.Fprintf(out, "escalated: %v\n", err)
		return nil
	}
	report(out, handled)
	return nil
}

func report(out io.Writer, handled bool) {
	if handled {
		fmt.Fprintln(out, "handled")
		return
	}
	fmt.Fprintln(out, "unhandled")
}
