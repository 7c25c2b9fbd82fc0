package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/polymkt/trader/config"
	"github.com/polymkt/trader/journal"
	"github.com/polymkt/trader/telemetry"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Rebuild the aggregate summary from the realized-exit ledger",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return err
	}
	log, err := telemetry.NewLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	fileJour, err := journal.NewFileJournal(cfg.Journal.Dir, log)
	if err != nil {
		return err
	}
	defer fileJour.Close()

	sum, err := journal.RebuildSummary(fileJour.ExitsPath())
	if err != nil {
		return err
	}

	fmt.Printf("Trades:        %d (%d wins, %d losses, %.1f%% win rate)\n",
		sum.Trades, sum.Wins, sum.Losses, sum.WinRate*100)
	fmt.Printf("PnL:           %.2f gross, %.2f fees, %.2f net\n",
		sum.Pnl, sum.Fees, sum.PnlAfterFees)
	fmt.Printf("Avg hold:      %.0fs\n", sum.AvgHoldingSeconds)

	if len(sum.ByStrategy) > 0 {
		fmt.Println("\nBy strategy:")
		for _, name := range sortedKeys(sum.ByStrategy) {
			s := sum.ByStrategy[name]
			fmt.Printf("  %-20s %4d trades  %6.1f%% win  %10.2f net\n",
				name, s.Trades, s.WinRate*100, s.PnlAfterFees)
		}
	}
	if len(sum.ByReason) > 0 {
		fmt.Println("\nBy exit reason:")
		for _, reason := range sortedKeys(sum.ByReason) {
			fmt.Printf("  %-28s %4d trades\n", reason, sum.ByReason[reason])
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
