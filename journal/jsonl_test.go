package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polymkt/trader/market"
)

func exitAt(ts time.Time, pnl, fees float64, reason string, strategies ...string) RealizedExit {
	return RealizedExit{
		ID:             "x-" + ts.Format("150405"),
		Timestamp:      ts,
		MarketID:       "mkt-1",
		Side:           market.Yes,
		Reason:         reason,
		Notional:       100,
		Shares:         200,
		EntryPrice:     0.5,
		Pnl:            pnl,
		Fees:           fees,
		PnlAfterFees:   pnl - fees,
		HoldingSeconds: 600,
		Strategies:     strategies,
	}
}

func TestFileJournalExitRoundTrip(t *testing.T) {
	t.Parallel()
	j, err := NewFileJournal(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()

	want := exitAt(time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC), 10, 2, "tp_sl", "momentum")
	j.RecordExit(want)

	var got []RealizedExit
	require.NoError(t, ReadExits(j.ExitsPath(), func(e RealizedExit) { got = append(got, e) }))
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
	assert.InDelta(t, got[0].Pnl-got[0].Fees, got[0].PnlAfterFees, 1e-9)
}

func TestFileJournalDayRealizedPnl(t *testing.T) {
	t.Parallel()
	j, err := NewFileJournal(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()

	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	j.RecordExit(exitAt(now.Add(-time.Hour), -40, 10, "tp_sl"))
	j.RecordExit(exitAt(now.Add(-2*time.Hour), 20, 5, "time"))
	j.RecordExit(exitAt(now.Add(-30*time.Hour), -999, 0, "time"))

	got, err := j.DayRealizedPnl(now, 0)
	require.NoError(t, err)
	assert.InDelta(t, -35, got, 1e-9, "only the current day window counts")
}

func TestReadExitsMissingFile(t *testing.T) {
	t.Parallel()
	calls := 0
	err := ReadExits(filepath.Join(t.TempDir(), "missing.jsonl"), func(RealizedExit) { calls++ })
	assert.NoError(t, err, "a missing file is an empty ledger")
	assert.Zero(t, calls)
}

func TestRebuildSummary(t *testing.T) {
	t.Parallel()
	j, err := NewFileJournal(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()

	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	j.RecordExit(exitAt(base, 10, 2, "tp_sl", "momentum"))
	j.RecordExit(exitAt(base.Add(time.Minute), -5, 1, "time", "momentum", "mean_reversion"))
	j.RecordExit(exitAt(base.Add(2*time.Minute), 1, 1, "trailing", "mean_reversion"))

	sum, err := RebuildSummary(j.ExitsPath())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Trades)
	assert.Equal(t, 1, sum.Wins)
	assert.Equal(t, 2, sum.Losses)
	assert.InDelta(t, 1.0/3.0, sum.WinRate, 1e-9)
	assert.InDelta(t, 6, sum.Pnl, 1e-9)
	assert.InDelta(t, 4, sum.Fees, 1e-9)
	assert.InDelta(t, sum.Pnl-sum.Fees, sum.PnlAfterFees, 1e-9)
	assert.InDelta(t, 600, sum.AvgHoldingSeconds, 1e-9)

	momentum := sum.ByStrategy["momentum"]
	assert.Equal(t, 2, momentum.Trades)
	assert.Equal(t, 1, momentum.Wins)
	assert.InDelta(t, 0.5, momentum.WinRate, 1e-9)
	assert.InDelta(t, 2, momentum.PnlAfterFees, 1e-9)
	meanRev := sum.ByStrategy["mean_reversion"]
	assert.Equal(t, 2, meanRev.Trades)
	assert.Zero(t, meanRev.Wins)
	assert.Zero(t, meanRev.WinRate)
	assert.Equal(t, 1, sum.ByReason["tp_sl"])
	assert.Equal(t, 1, sum.ByReason["time"])
	assert.Equal(t, 1, sum.ByReason["trailing"])
}

func TestRebuildSummaryEmpty(t *testing.T) {
	t.Parallel()
	sum, err := RebuildSummary(filepath.Join(t.TempDir(), "exits.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, sum.Trades)
	assert.Zero(t, sum.WinRate)
}
