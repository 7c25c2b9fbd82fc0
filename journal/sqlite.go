package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/polymkt/trader/broker"
	"github.com/polymkt/trader/exec"
	"github.com/polymkt/trader/market"
)

// SQLiteJournal mirrors orders and realized exits into SQLite.
type SQLiteJournal struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteJournal(path string, log *zap.Logger) (*SQLiteJournal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &SQLiteJournal{db: db, log: log}, nil
}

func (j *SQLiteJournal) RecordOrder(r exec.Report) {
	_, err := j.db.Exec(`INSERT INTO orders
		(order_id, ts, market_id, side, requested, filled, avg_price, fees, status, mode, reduce_only, attempts, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.Timestamp.UTC(), r.MarketID, string(r.Side),
		r.RequestedNotional, r.FilledNotional, r.AveragePrice, r.Fees,
		string(r.Status), r.Mode, r.ReduceOnly, r.Attempts, r.Error)
	if err != nil {
		j.log.Error("sqlite order insert failed", zap.Error(err))
	}
}

// RecordFill is a no-op for the mirror: fills stay in the JSONL stream
// and fold into orders via the tracker.
func (j *SQLiteJournal) RecordFill(broker.FillUpdate) {}

func (j *SQLiteJournal) RecordExit(e RealizedExit) {
	_, err := j.db.Exec(`INSERT OR REPLACE INTO exits
		(id, ts, market_id, side, reason, notional, shares, entry_price, exit_price, pnl, fees, pnl_after_fees, holding_seconds, strategies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC(), e.MarketID, string(e.Side), e.Reason,
		e.Notional, e.Shares, e.EntryPrice, e.ExitPrice,
		e.Pnl, e.Fees, e.PnlAfterFees, e.HoldingSeconds,
		strings.Join(e.Strategies, ","))
	if err != nil {
		j.log.Error("sqlite exit insert failed", zap.Error(err))
	}
}

func (j *SQLiteJournal) Close() error { return j.db.Close() }

// DayRealizedPnl returns realized pnl after fees for the day window
// containing now.
func (j *SQLiteJournal) DayRealizedPnl(now time.Time, resetHour int) (float64, error) {
	start, end := DayWindow(now, resetHour)
	var total sql.NullFloat64
	err := j.db.QueryRow(
		`SELECT SUM(pnl_after_fees) FROM exits WHERE ts >= ? AND ts < ?`,
		start, end,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("query day pnl: %w", err)
	}
	return total.Float64, nil
}

// ExitsBetween lists realized exits in [from, to) ordered by time.
func (j *SQLiteJournal) ExitsBetween(from, to time.Time) ([]RealizedExit, error) {
	rows, err := j.db.Query(
		`SELECT id, ts, market_id, side, reason, notional, shares, entry_price, exit_price,
		        pnl, fees, pnl_after_fees, holding_seconds, strategies
		 FROM exits WHERE ts >= ? AND ts < ? ORDER BY ts`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query exits: %w", err)
	}
	defer rows.Close()

	var out []RealizedExit
	for rows.Next() {
		var e RealizedExit
		var side, strategies string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.MarketID, &side, &e.Reason,
			&e.Notional, &e.Shares, &e.EntryPrice, &e.ExitPrice,
			&e.Pnl, &e.Fees, &e.PnlAfterFees, &e.HoldingSeconds, &strategies); err != nil {
			return nil, fmt.Errorf("scan exit: %w", err)
		}
		e.Side = market.Side(side)
		if strategies != "" {
			e.Strategies = strings.Split(strategies, ",")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
