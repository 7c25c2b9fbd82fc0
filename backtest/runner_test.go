package backtest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/position"
	"github.com/polymkt/trader/pricing"
	"github.com/polymkt/trader/risk"
	"github.com/polymkt/trader/strategies"
)

// trendSnap is strong enough 24h momentum to clear the cost prefilter.
func trendSnap(marketID string, at time.Time) market.Snapshot {
	return market.Snapshot{
		MarketID:         marketID,
		Time:             at,
		Bid:              0.49,
		Ask:              0.51,
		PriceChange24h:   0.08,
		PriceChange1h:    0.01,
		DepthYesNotional: 500,
		DepthNoNotional:  500,
		LastTradePrice:   0.50,
	}
}

func momentumFactory() EngineFactory {
	return func() *consensus.Engine {
		cfg := consensus.DefaultConfig()
		cfg.ConsensusMin = 1
		evals := []strategies.Evaluator{strategies.NewMomentum(strategies.DefaultMomentumConfig())}
		return consensus.New(cfg, evals, map[string]float64{"momentum": 1})
	}
}

func newTestRunner(t *testing.T, cycles [][]market.Snapshot) *Runner {
	t.Helper()
	return NewRunner(momentumFactory(), risk.DefaultConfig(), position.DefaultExitConfig(), cycles, nil)
}

func TestRunnerDeterministic(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	r := newTestRunner(t, [][]market.Snapshot{{trendSnap("mkt-1", at)}})

	p := Params{
		HoldingSeconds: 3600,
		Pricing:        pricing.Config{Model: pricing.Taker},
		FeeRate:        0.02,
		InitialBalance: 10000,
	}
	first := r.Run(p, "tag")
	second := r.Run(p, "tag")
	assert.Equal(t, first, second, "identical inputs replay identically")

	require.Equal(t, 1, first.ClosedTrades)
	trade := first.Trades[0]
	assert.Equal(t, consensus.ActionYes, trade.Action)
	assert.InDelta(t, 60, trade.Notional, 1e-9)
	assert.InDelta(t, 0.51, trade.EntryPrice, 1e-9)
	assert.Equal(t, position.ReasonTime, trade.Reason)
	assert.InDelta(t, 2.4, trade.Fees, 1e-9, "both legs cross as taker")
	assert.False(t, trade.Win)
	assert.Equal(t, []string{"momentum"}, trade.Strategies)

	assert.InDelta(t, first.PnlAfterFees/10000, first.TotalReturn, 1e-9)
	assert.InDelta(t, 10000+first.PnlAfterFees, first.FinalBalance, 1e-9)
}

func TestSweepAppendsLedger(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	r := newTestRunner(t, [][]market.Snapshot{{trendSnap("mkt-1", at)}})

	spec := SweepSpec{
		Model:          pricing.Taker,
		HoldingSeconds: []int{1800, 3600},
		FeeRate:        0.02,
		InitialBalance: 10000,
	}
	ledger := filepath.Join(t.TempDir(), "backtests.csv")

	results, err := Sweep(r, spec, "t", ledger)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "t-000", results[0].RunTag)
	assert.Equal(t, "t-001", results[1].RunTag)
	assert.Equal(t, 1800, results[0].Params.HoldingSeconds)

	rows := readLedger(t, ledger)
	require.Len(t, rows, 3, "header plus one row per trade")
	assert.Equal(t, ledgerHeader, rows[0])
	assert.Equal(t, "t-000", rows[1][0])
	assert.Equal(t, "1800", rows[1][1])
	assert.Equal(t, "momentum", rows[1][16])

	// A second sweep extends the ledger without repeating the header.
	_, err = Sweep(r, spec, "u", ledger)
	require.NoError(t, err)
	rows = readLedger(t, ledger)
	assert.Len(t, rows, 5)
	assert.Equal(t, "u-000", rows[3][0])
}

func readLedger(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSweepPointsExpandOffsets(t *testing.T) {
	t.Parallel()
	spec := SweepSpec{
		Model:           pricing.Maker,
		HoldingSeconds:  []int{600},
		MakerOffsetsBps: []float64{0, 50},
		TakerOffsetsBps: []float64{0, 25, 100},
	}
	points := spec.Points()
	assert.Len(t, points, 6)
	assert.Equal(t, pricing.Maker, points[0].Pricing.Model)
}

func TestParetoFrontier(t *testing.T) {
	t.Parallel()
	a := Result{RunTag: "a", WinRate: 0.10, TotalReturn: 0.60}
	b := Result{RunTag: "b", WinRate: 0.20, TotalReturn: 0.50}
	c := Result{RunTag: "c", WinRate: 0.05, TotalReturn: 0.40}

	frontier := ParetoFrontier([]Result{c, b, a})
	require.Len(t, frontier, 2, "c is dominated on both axes")
	assert.Equal(t, "a", frontier[0].RunTag, "sorted by descending total return")
	assert.Equal(t, "b", frontier[1].RunTag)
}

func TestParetoFrontierEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ParetoFrontier(nil))
}
