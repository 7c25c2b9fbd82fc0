package market

import "time"

// Side identifies which outcome token of a binary market a position or
// order refers to. Yes and No prices nominally sum to one.
type Side string

const (
	Yes Side = "yes"
	No  Side = "no"
)

// Opposite returns the complementary outcome side.
func (s Side) Opposite() Side {
	if s == Yes {
		return No
	}
	return Yes
}

// Snapshot is one normalized observation of a binary prediction market,
// produced fresh each poll cycle by the data provider. The decision core
// treats it as read-only.
type Snapshot struct {
	MarketID string    `json:"market_id"`
	Time     time.Time `json:"time"`

	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`

	Volume24h      float64 `json:"volume_24h"`
	Volatility     float64 `json:"volatility"`
	PriceChange24h float64 `json:"price_change_24h"`
	PriceChange1h  float64 `json:"price_change_1h"`

	// Book depth in notional terms for each outcome side.
	DepthYesNotional float64 `json:"depth_yes_notional"`
	DepthNoNotional  float64 `json:"depth_no_notional"`

	// External reference quotes for the same market on another venue.
	// ExternalReal is false when they are derived rather than observed.
	ExternalBid  float64 `json:"external_bid"`
	ExternalAsk  float64 `json:"external_ask"`
	ExternalReal bool    `json:"external_real"`

	SentimentScore     float64   `json:"sentiment_score"`
	SentimentSource    string    `json:"sentiment_source"`
	SentimentUpdatedAt time.Time `json:"sentiment_updated_at"`

	LastTradePrice float64 `json:"last_trade_price"`

	Resolved bool `json:"resolved"`

	// Degraded marks a snapshot served from cache after a provider
	// failure; DegradedReason is one of provider_exception or
	// provider_empty_payload.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// Mid returns the book midpoint, falling back to whichever quote exists.
func (s Snapshot) Mid() float64 {
	switch {
	case s.Bid > 0 && s.Ask > 0:
		return (s.Bid + s.Ask) / 2
	case s.Ask > 0:
		return s.Ask
	default:
		return s.Bid
	}
}

// Spread returns ask minus bid, zero when either quote is missing.
func (s Snapshot) Spread() float64 {
	if s.Bid <= 0 || s.Ask <= 0 {
		return 0
	}
	return s.Ask - s.Bid
}

// DepthFor returns the notional depth available on the given side.
func (s Snapshot) DepthFor(side Side) float64 {
	if side == Yes {
		return s.DepthYesNotional
	}
	return s.DepthNoNotional
}

// ExternalSpread returns the external quote width, zero when incomplete.
func (s Snapshot) ExternalSpread() float64 {
	if s.ExternalBid <= 0 || s.ExternalAsk <= 0 {
		return 0
	}
	return s.ExternalAsk - s.ExternalBid
}

// Clamp01 bounds a price to the valid (0,1) probability range used by
// binary outcome tokens.
func Clamp01(p float64) float64 {
	if p < 0.01 {
		return 0.01
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}
