package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FillUpdate is one order lifecycle event pushed by the venue.
type FillUpdate struct {
	OrderID        string    `json:"order_id"`
	MarketID       string    `json:"market_id"`
	Status         string    `json:"status"`
	FilledNotional float64   `json:"filled_notional"`
	FilledShares   float64   `json:"filled_shares"`
	Price          float64   `json:"price"`
	Fees           float64   `json:"fees"`
	Timestamp      time.Time `json:"timestamp"`
}

// LifecycleStreamer subscribes to the venue's order event feed over a
// websocket and delivers fill updates on a channel. Reconnection is the
// caller's responsibility; a closed Updates channel signals the stream
// ended.
type LifecycleStreamer struct {
	url     string
	log     *zap.Logger
	updates chan FillUpdate
	conn    *websocket.Conn
}

func NewLifecycleStreamer(url string, log *zap.Logger) *LifecycleStreamer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LifecycleStreamer{
		url:     url,
		log:     log,
		updates: make(chan FillUpdate, 64),
	}
}

// Updates is the fill event channel, closed when the stream ends.
func (s *LifecycleStreamer) Updates() <-chan FillUpdate { return s.updates }

// Run dials the feed and pumps events until the context is cancelled
// or the connection drops.
func (s *LifecycleStreamer) Run(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial order stream: %w", err)
	}
	s.conn = conn
	defer close(s.updates)
	defer conn.Close()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	go s.pingLoop(ctx, conn)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read order stream: %w", err)
		}
		var upd FillUpdate
		if err := json.Unmarshal(msg, &upd); err != nil {
			s.log.Warn("skipping malformed fill update", zap.Error(err))
			continue
		}
		select {
		case s.updates <- upd:
		case <-ctx.Done():
			return ctx.Err()
		default:
			s.log.Warn("fill update channel full, dropping event",
				zap.String("order", upd.OrderID))
		}
	}
}

func (s *LifecycleStreamer) pingLoop(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
