package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/devblac/semaphore-cli/internal/ui"
)

const banner = ` ____                                  _
/ ___|  ___ _ __ ___   __ _ _ __ | |__   ___  _ __ ___
\___ \ / _ \ '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \| '_ \ / _ \| '__/ _ \
 ___) |  __/ | | | | | (_| | |_) | | | | (_) | | |  __/
|____/ \___|_| |_| |_|\__,_| .__/|_| |_|\___/|_|  \___|
                           |_|`

var (
	cfgPath     string
	logLevel    string
	noColor     bool
	metricsPath string
	rootCmd     = &cobra.Command{
		Use:     "semaphore",
		Short:   "A command line tool to set up your Semaphore project and get group data",
		Long:    banner + "\n\nA command line tool to set up your Semaphore project and get group data.",
		Version: version,
	}
)

func init() {
	cobra.EnableCommandSorting = false

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "semaphore.yaml", "Path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&metricsPath, "metrics-file", "", "Write lookup counters to this file in Prometheus textfile format")

	rootCmd.Flags().BoolP("version", "v", false, "Show Semaphore CLI version")
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(
		versionCmd,
		createCmd,
		getGroupsCmd,
		getGroupCmd,
		getMembersCmd,
		getProofsCmd,
		networksCmd,
		doctorCmd,
		historyCmd,
	)
}

// Execute runs the root command tree.
func Execute() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.NewPrinter(os.Stderr, noColor).Error("%v", err)
		return err
	}
	return nil
}
