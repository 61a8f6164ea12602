package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts"
)

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Bayesian analysis of NYC residential property sales",
		Long: `nycsales loads the five borough rolling sales extracts, keeps whole-building
residential sales, imputes missing prices and fits two Bayesian regressions of
log sale price. Reports are written to a new directory per run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       contracts.Version,
	}

	o.register(root.PersistentFlags())

	root.AddCommand(runCmd(o))
	root.AddCommand(edaCmd(o))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, stopping after the current step...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
