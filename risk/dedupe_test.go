package risk

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polymkt/trader/market"
)

func TestIntentIndexWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	ix := NewIntentIndex(DedupeConfig{WindowSeconds: 120, MaxEntries: 64})
	ix.now = func() time.Time { return now }

	assert.False(t, ix.Seen("mkt-1", market.Yes, 60), "first intent is fresh")
	assert.True(t, ix.Seen("mkt-1", market.Yes, 60), "repeat inside the window")
	assert.False(t, ix.Seen("mkt-1", market.No, 60), "opposite direction is distinct")

	now = now.Add(121 * time.Second)
	assert.False(t, ix.Seen("mkt-1", market.Yes, 60), "window expired")
}

func TestIntentIndexSizeBound(t *testing.T) {
	t.Parallel()
	ix := NewIntentIndex(DedupeConfig{WindowSeconds: 3600, MaxEntries: 3})
	for i := 0; i < 6; i++ {
		ix.Seen(fmt.Sprintf("mkt-%d", i), market.Yes, 10)
	}
	assert.Equal(t, 3, ix.Len())
}

func TestIntentIndexPersistence(t *testing.T) {
	t.Parallel()
	cfg := DedupeConfig{
		WindowSeconds: 120,
		MaxEntries:    64,
		SnapshotPath:  filepath.Join(t.TempDir(), "intents.json"),
	}

	ix := NewIntentIndex(cfg)
	assert.False(t, ix.Seen("mkt-1", market.Yes, 60))

	// A fresh index loads the snapshot and still remembers the intent.
	reloaded := NewIntentIndex(cfg)
	assert.True(t, reloaded.Seen("mkt-1", market.Yes, 60))
}

func TestIntentIndexAuditTrail(t *testing.T) {
	t.Parallel()
	auditPath := filepath.Join(t.TempDir(), "intents_audit.csv")
	ix := NewIntentIndex(DedupeConfig{WindowSeconds: 120, MaxEntries: 64, AuditPath: auditPath})

	ix.Seen("mkt-1", market.Yes, 60)
	ix.Seen("mkt-1", market.Yes, 60)

	f, err := os.Open(auditPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "every intent is audited, duplicates included")
	assert.Equal(t, "false", rows[0][4])
	assert.Equal(t, "true", rows[1][4])
}
