package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polymkt/trader/market"
)

func book() market.Snapshot {
	return market.Snapshot{Bid: 0.40, Ask: 0.50}
}

func TestEntryPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		side market.Side
		want float64
	}{
		{"taker yes crosses to ask", Config{Model: Taker}, market.Yes, 0.50},
		{"taker no crosses to bid", Config{Model: Taker}, market.No, 0.40},
		{"taker offset pays up", Config{Model: Taker, TakerOffsetBps: 100}, market.Yes, 0.505},
		{"taker offset pays down for no", Config{Model: Taker, TakerOffsetBps: 100}, market.No, 0.396},
		{"maker yes posts at bid", Config{Model: Maker}, market.Yes, 0.40},
		{"maker offset improves", Config{Model: Maker, MakerOffsetBps: 100}, market.Yes, 0.396},
		{"mid ignores offsets", Config{Model: Mid, TakerOffsetBps: 500}, market.Yes, 0.45},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, EntryPrice(tt.cfg, book(), tt.side), 1e-9)
		})
	}
}

func TestExitPriceReversesAggression(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: Taker}
	assert.InDelta(t, 0.40, ExitPrice(cfg, book(), market.Yes), 1e-9, "yes holder sells into the bid")
	assert.InDelta(t, 0.50, ExitPrice(cfg, book(), market.No), 1e-9, "no holder buys back at the ask")

	cfg = Config{Model: Maker}
	assert.InDelta(t, 0.50, ExitPrice(cfg, book(), market.Yes), 1e-9)
	assert.InDelta(t, 0.40, ExitPrice(cfg, book(), market.No), 1e-9)
}

func TestApplyOffsetClamps(t *testing.T) {
	t.Parallel()
	snap := market.Snapshot{Bid: 0.97, Ask: 0.985}
	got := EntryPrice(Config{Model: Taker, TakerOffsetBps: 200}, snap, market.Yes)
	assert.InDelta(t, 0.99, got, 1e-9, "prices stay inside the probability band")
}

func TestSharesForNotional(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 200, SharesForNotional(100, 0.5, market.Yes), 1e-9)
	assert.InDelta(t, 250, SharesForNotional(100, 0.6, market.No), 1e-9, "no shares price off the complement")
	assert.Zero(t, SharesForNotional(100, 0, market.Yes))
	assert.Zero(t, SharesForNotional(100, 1, market.No))
}

func TestRoundTripFees(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 4, RoundTripFees(100, 0.02, true), 1e-9, "taker pays both legs")
	assert.InDelta(t, 2, RoundTripFees(100, 0.02, false), 1e-9)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Config{Model: MakerLimit}.Validate())
	assert.Error(t, Config{Model: "vwap"}.Validate())
}
