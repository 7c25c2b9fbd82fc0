package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/polymkt/trader/backtest"
	"github.com/polymkt/trader/config"
	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/telemetry"
)

var (
	backtestTag      string
	backtestLedger   string
	backtestHoldings []int
	backtestMakerBps []float64
	backtestTakerBps []float64
	backtestFrontier bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay fixture snapshots over a parameter sweep",
	Long: `Backtest replays the configured fixture file through the same
consensus, guard, pricing and exit code the live loop uses, once per
point of the holding/offset grid, and appends each result to the CSV
ledger. Identical inputs always produce identical results.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestTag, "tag", "", "run tag for the ledger (default: timestamp)")
	backtestCmd.Flags().StringVar(&backtestLedger, "ledger", "", "CSV ledger path to append results to")
	backtestCmd.Flags().IntSliceVar(&backtestHoldings, "holding", nil, "holding horizons in seconds (default: configured exit horizon)")
	backtestCmd.Flags().Float64SliceVar(&backtestMakerBps, "maker-bps", nil, "maker offsets in basis points")
	backtestCmd.Flags().Float64SliceVar(&backtestTakerBps, "taker-bps", nil, "taker offsets in basis points")
	backtestCmd.Flags().BoolVar(&backtestFrontier, "frontier", false, "print only the Pareto frontier over win rate and return")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Markets.FixturePath == "" {
		return fmt.Errorf("markets.fixture_path is required for backtesting")
	}

	log, err := telemetry.NewLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	fixture, err := market.LoadFixture(cfg.Markets.FixturePath, false)
	if err != nil {
		return err
	}

	factory := func() *consensus.Engine {
		evals, weights := cfg.BuildEvaluators()
		return consensus.New(cfg.Consensus, evals, weights)
	}
	runner := backtest.NewRunner(factory, cfg.Risk, cfg.Exits, fixture.Cycles(), log)

	holdings := backtestHoldings
	if len(holdings) == 0 {
		holdings = []int{cfg.Exits.HoldingSeconds}
	}
	tag := backtestTag
	if tag == "" {
		tag = time.Now().UTC().Format("20060102-150405")
	}

	spec := backtest.SweepSpec{
		Model:           cfg.Execution.Pricing.Model,
		HoldingSeconds:  holdings,
		MakerOffsetsBps: backtestMakerBps,
		TakerOffsetsBps: backtestTakerBps,
		FeeRate:         cfg.Execution.FeeRate,
		InitialBalance:  cfg.Account.InitialBalance,
	}
	results, err := backtest.Sweep(runner, spec, tag, backtestLedger)
	if err != nil {
		return err
	}

	out := results
	if backtestFrontier {
		out = backtest.ParetoFrontier(results)
		fmt.Printf("Pareto frontier (%d of %d points):\n", len(out), len(results))
	}
	fmt.Printf("%-16s %8s %8s %8s %10s %12s %10s\n",
		"RUN", "HOLD", "TRADES", "WINS", "WIN_RATE", "PNL_AFTER", "RETURN")
	for _, r := range out {
		fmt.Printf("%-16s %8d %8d %8d %9.1f%% %12.2f %9.2f%%\n",
			r.RunTag, r.Params.HoldingSeconds, r.ClosedTrades, r.Wins,
			r.WinRate*100, r.PnlAfterFees, r.TotalReturn*100)
	}
	return nil
}
