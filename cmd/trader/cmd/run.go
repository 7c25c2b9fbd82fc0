package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polymkt/trader/broker"
	"github.com/polymkt/trader/config"
	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/engine"
	"github.com/polymkt/trader/exec"
	"github.com/polymkt/trader/journal"
	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/risk"
	"github.com/polymkt/trader/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live decision loop until interrupted",
	RunE:  runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return err
	}

	log, err := telemetry.NewLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	jour, fileJour, err := buildJournal(cfg, log)
	if err != nil {
		return err
	}
	defer jour.Close()

	venue := broker.NewSimVenue(cfg.Execution.Pricing, cfg.Execution.FeeRate)
	provider, err := buildProvider(cfg, venue)
	if err != nil {
		return err
	}

	evals, weights := cfg.BuildEvaluators()
	eng := engine.New(engine.Params{
		Config:       cfg.Engine,
		Provider:     provider,
		Consensus:    consensus.New(cfg.Consensus, evals, weights),
		Guards:       risk.NewChain(cfg.Risk, cfg.Account.InitialBalance, log),
		Exec:         exec.NewService(cfg.Execution, venue, exec.NewTracker(), jour, log),
		Journal:      jour,
		DayPnl:       fileJour,
		ExitConfig:   cfg.Exits,
		StrategyExit: cfg.StrategyExits,
		Pricing:      cfg.Execution.Pricing,
		Balance:      cfg.Account.InitialBalance,
		Logger:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		go func() {
			if err := telemetry.ServeMetrics(addr); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}
	if url := cfg.Telemetry.OrderStreamURL; url != "" {
		streamer := broker.NewLifecycleStreamer(url, log)
		eng.AttachFillStream(streamer.Updates())
		go func() {
			if err := streamer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn("order stream ended", zap.Error(err))
			}
		}()
	}

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildJournal assembles the persistence sinks: always the JSONL stream
// journal, plus the SQLite mirror when configured. The file journal is
// returned separately as the day-pnl source for the kill-switch.
func buildJournal(cfg *config.Config, log *zap.Logger) (journal.Multi, *journal.FileJournal, error) {
	fileJour, err := journal.NewFileJournal(cfg.Journal.Dir, log)
	if err != nil {
		return nil, nil, err
	}
	sinks := journal.Multi{fileJour}
	if cfg.Journal.SQLitePath != "" {
		sq, err := journal.NewSQLiteJournal(cfg.Journal.SQLitePath, log)
		if err != nil {
			fileJour.Close()
			return nil, nil, err
		}
		sinks = append(sinks, sq)
	}
	return sinks, fileJour, nil
}

func buildProvider(cfg *config.Config, venue *broker.SimVenue) (market.SnapshotProvider, error) {
	if cfg.Markets.FixturePath == "" {
		return nil, fmt.Errorf("markets.fixture_path is required to run against the simulated venue")
	}
	fixture, err := market.LoadFixture(cfg.Markets.FixturePath, true)
	if err != nil {
		return nil, err
	}
	return &observeProvider{inner: market.NewCachedProvider(fixture), venue: venue}, nil
}

// observeProvider shows every fetched snapshot to the simulated venue
// so fills track the latest book.
type observeProvider struct {
	inner market.SnapshotProvider
	venue *broker.SimVenue
}

func (p *observeProvider) Snapshots(ctx context.Context) ([]market.Snapshot, error) {
	snaps, err := p.inner.Snapshots(ctx)
	for _, s := range snaps {
		p.venue.Observe(s)
	}
	return snaps, err
}
