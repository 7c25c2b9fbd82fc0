package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ledgerHeader is the fixed column order of the backtest ledger. Rows
// only append; re-running a sweep extends the file.
var ledgerHeader = []string{
	"run_tag", "holding_seconds", "pricing_model",
	"maker_offset_bps", "taker_offset_bps",
	"market_id", "action", "notional", "shares",
	"entry_price", "exit_price", "pnl", "pnl_after_fees", "fees",
	"reason", "win", "strategies",
}

// AppendLedger appends every trade of a result to the CSV ledger at
// path, writing the header when the file is new.
func AppendLedger(path string, res Result) error {
	info, err := os.Stat(path)
	writeHeader := err != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open backtest ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(ledgerHeader); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	for _, t := range res.Trades {
		row := []string{
			res.RunTag,
			strconv.Itoa(res.Params.HoldingSeconds),
			string(res.Params.Pricing.Model),
			fmtFloat(res.Params.Pricing.MakerOffsetBps),
			fmtFloat(res.Params.Pricing.TakerOffsetBps),
			t.MarketID,
			string(t.Action),
			fmtFloat(t.Notional),
			fmtFloat(t.Shares),
			fmtFloat(t.EntryPrice),
			fmtFloat(t.ExitPrice),
			fmtFloat(t.Pnl),
			fmtFloat(t.PnlAfter),
			fmtFloat(t.Fees),
			t.Reason,
			strconv.FormatBool(t.Win),
			strings.Join(t.Strategies, "|"),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
