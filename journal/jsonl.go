package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polymkt/trader/broker"
	"github.com/polymkt/trader/exec"
)

const (
	ordersFile = "orders.jsonl"
	fillsFile  = "fills.jsonl"
	exitsFile  = "exits.jsonl"
)

// FileJournal writes each stream as one JSON object per line under a
// directory. Files are opened append-only so restarts extend rather
// than truncate history.
type FileJournal struct {
	dir string
	log *zap.Logger

	mu     sync.Mutex
	orders *os.File
	fills  *os.File
	exits  *os.File
}

func NewFileJournal(dir string, log *zap.Logger) (*FileJournal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	j := &FileJournal{dir: dir, log: log}
	var err error
	if j.orders, err = openAppend(filepath.Join(dir, ordersFile)); err != nil {
		return nil, err
	}
	if j.fills, err = openAppend(filepath.Join(dir, fillsFile)); err != nil {
		return nil, err
	}
	if j.exits, err = openAppend(filepath.Join(dir, exitsFile)); err != nil {
		return nil, err
	}
	return j, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal file %s: %w", path, err)
	}
	return f, nil
}

// ExitsPath returns the realized-exit stream path, the input for
// summary rebuilds.
func (j *FileJournal) ExitsPath() string {
	return filepath.Join(j.dir, exitsFile)
}

func (j *FileJournal) append(f *os.File, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		j.log.Error("journal marshal failed", zap.Error(err))
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := f.Write(append(data, '\n')); err != nil {
		// Persistence failures never stall trading.
		j.log.Error("journal write failed", zap.String("file", f.Name()), zap.Error(err))
	}
}

func (j *FileJournal) RecordOrder(r exec.Report)      { j.append(j.orders, r) }
func (j *FileJournal) RecordFill(f broker.FillUpdate) { j.append(j.fills, f) }
func (j *FileJournal) RecordExit(e RealizedExit)      { j.append(j.exits, e) }

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var first error
	for _, f := range []*os.File{j.orders, j.fills, j.exits} {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DayRealizedPnl folds the exit stream into the realized pnl for the
// day window containing now.
func (j *FileJournal) DayRealizedPnl(now time.Time, resetHour int) (float64, error) {
	start, end := DayWindow(now, resetHour)
	var total float64
	err := ReadExits(j.ExitsPath(), func(e RealizedExit) {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			total += e.PnlAfterFees
		}
	})
	return total, err
}

// ReadExits streams every exit record in the file through fn. A
// missing file is an empty ledger, not an error.
func ReadExits(path string, fn func(RealizedExit)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open exits: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e RealizedExit
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("parse exit record: %w", err)
		}
		fn(e)
	}
	return sc.Err()
}
