package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "An automated trading decision core for binary prediction markets",
	Long: `Trader turns a stream of market snapshots into admitted, fee-aware
orders, tracks open positions through a multi-reason exit state machine,
and replays the exact same logic offline for parameter tuning.

It provides tools for:
  - Running the live decision loop against a snapshot provider
  - Backtesting with fixture snapshots and parameter sweeps
  - Rebuilding aggregate summaries from the realized-exit ledger
  - Reducing sweep results to a Pareto frontier`,
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "trader.yaml", "configuration file (YAML or JSON)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
