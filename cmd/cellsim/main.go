// Command cellsim simulates the electrical and thermal energy balance of a
// tree of district cells, buildings and agents.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var verbose bool
	var log *zap.Logger

	rootCmd := &cobra.Command{
		Use:           "cellsim",
		Short:         "Cellular energy system simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			log, err = newLogger(verbose)
			return err
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = log.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging at debug level")

	logger := func() *zap.Logger { return log }
	rootCmd.AddCommand(runCmd(logger))
	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(sizeHeatPumpCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error("command failed", zap.Error(err))
		} else {
			os.Stderr.WriteString(err.Error() + "\n")
		}
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
