// Package exec turns approved intents into venue orders: it prices
// them, retries transient rejections with backoff, surfaces fatal ones,
// and keeps the full order lifecycle history.
package exec

import (
	"time"

	"github.com/polymkt/trader/market"
)

// Status of an order over its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPartial  Status = "partial"
	StatusFilled   Status = "filled"
	StatusRejected Status = "rejected"
	StatusError    Status = "error"
)

// Report is the execution record for one order. Created on submission,
// updated on every fill or acknowledgement; history is append-only.
type Report struct {
	OrderID  string      `json:"order_id"`
	MarketID string      `json:"market_id"`
	Side     market.Side `json:"side"`

	RequestedNotional float64 `json:"requested_notional"`
	RequestedShares   float64 `json:"requested_shares"`
	FilledNotional    float64 `json:"filled_notional"`
	FilledShares      float64 `json:"filled_shares"`
	AveragePrice      float64 `json:"average_price"`
	Fees              float64 `json:"fees"`

	Status     Status    `json:"status"`
	Mode       string    `json:"mode"`
	ReduceOnly bool      `json:"reduce_only"`
	Error      string    `json:"error,omitempty"`
	Attempts   int       `json:"attempts"`
	Timestamp  time.Time `json:"timestamp"`
}

// RemainingNotional is the unfilled part of the request.
func (r Report) RemainingNotional() float64 {
	rem := r.RequestedNotional - r.FilledNotional
	if rem < 0 {
		return 0
	}
	return rem
}

// IsFilled reports whether the order is done filling.
func (r Report) IsFilled() bool {
	return r.Status == StatusFilled || r.RemainingNotional() <= 1e-9 && r.FilledNotional > 0
}
