// Package broker defines the execution venue boundary. The decision
// core only ever sees this interface; live venue adapters live with
// the execution collaborator.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/polymkt/trader/market"
)

// Venue accepts order payloads and returns acknowledgements.
type Venue interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// OrderRequest is one order payload.
type OrderRequest struct {
	OrderID  string
	MarketID string
	Side     market.Side
	Notional float64
	// LimitPrice of zero means no constraint (market order).
	LimitPrice float64
	// ReduceOnly orders may only shrink an existing position.
	ReduceOnly bool
}

// OrderResult is the venue acknowledgement.
type OrderResult struct {
	OrderID        string
	FilledNotional float64
	FilledShares   float64
	AveragePrice   float64
	Fees           float64
	Timestamp      time.Time
}

// Venue rejection classes. Transient rejections are worth retrying;
// fatal ones are not.
var (
	ErrPriceTooFar       = errors.New("price too far from oracle")
	ErrMinNotional       = errors.New("below temporary minimum notional")
	ErrAuth              = errors.New("authentication rejected")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidMarket     = errors.New("invalid market")
)

// Transient reports whether a venue error is worth retrying.
func Transient(err error) bool {
	return errors.Is(err, ErrPriceTooFar) || errors.Is(err, ErrMinNotional)
}

// Fatal reports whether a venue error must be surfaced immediately.
func Fatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrInvalidMarket)
}
