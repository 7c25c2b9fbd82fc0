package journal

// StrategySummary aggregates realized results for one strategy.
type StrategySummary struct {
	Trades            int
	Wins              int
	WinRate           float64
	Pnl               float64
	Fees              float64
	PnlAfterFees      float64
	AvgHoldingSeconds float64
}

// Summary is the aggregate view over the realized-exit ledger. It is
// always recomputed from the stream, never incrementally mutated.
type Summary struct {
	Trades  int
	Wins    int
	Losses  int
	WinRate float64

	Pnl          float64
	Fees         float64
	PnlAfterFees float64

	AvgHoldingSeconds float64

	ByStrategy map[string]StrategySummary
	ByReason   map[string]int
}

// Fold accumulates one exit into the summary.
func (s *Summary) Fold(e RealizedExit) {
	if s.ByStrategy == nil {
		s.ByStrategy = make(map[string]StrategySummary)
	}
	if s.ByReason == nil {
		s.ByReason = make(map[string]int)
	}

	s.Trades++
	if e.PnlAfterFees > 0 {
		s.Wins++
	} else {
		s.Losses++
	}
	s.Pnl += e.Pnl
	s.Fees += e.Fees
	s.PnlAfterFees += e.PnlAfterFees
	s.AvgHoldingSeconds += (e.HoldingSeconds - s.AvgHoldingSeconds) / float64(s.Trades)
	s.ByReason[e.Reason]++

	for _, name := range e.Strategies {
		st := s.ByStrategy[name]
		st.Trades++
		if e.PnlAfterFees > 0 {
			st.Wins++
		}
		st.WinRate = float64(st.Wins) / float64(st.Trades)
		st.Pnl += e.Pnl
		st.Fees += e.Fees
		st.PnlAfterFees += e.PnlAfterFees
		st.AvgHoldingSeconds += (e.HoldingSeconds - st.AvgHoldingSeconds) / float64(st.Trades)
		s.ByStrategy[name] = st
	}

	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
}

// RebuildSummary recomputes the aggregate view purely from the exit
// stream at path.
func RebuildSummary(path string) (Summary, error) {
	var s Summary
	err := ReadExits(path, func(e RealizedExit) { s.Fold(e) })
	return s, err
}
