package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexshd/queuelaw/internal/version"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "queuelaw",
		Short: "queuelaw - queueing model calculator and HTTP service",
		Long: `queuelaw evaluates M/M/s family queues and multi-class priority
systems (preemptive and non-preemptive), locally or over HTTP.`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "queuelaw.yaml",
		"Path to the YAML config file (missing file uses defaults)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCalcCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newModelsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
