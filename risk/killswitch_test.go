package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func frozenKillSwitch(cfg KillSwitchConfig, balance float64, now *time.Time) *KillSwitch {
	ks := NewKillSwitch(cfg, balance)
	ks.now = func() time.Time { return *now }
	return ks
}

func TestKillSwitchThreshold(t *testing.T) {
	t.Parallel()

	ks := NewKillSwitch(KillSwitchConfig{LimitPct: 0.02}, 10000)
	assert.InDelta(t, 200, ks.Threshold(), 1e-9)

	ks = NewKillSwitch(KillSwitchConfig{LimitPct: 0.02, LimitUSD: 150}, 10000)
	assert.InDelta(t, 150, ks.Threshold(), 1e-9, "tighter absolute limit binds")

	ks = NewKillSwitch(KillSwitchConfig{LimitPct: 0.02, LimitUSD: 300}, 10000)
	assert.InDelta(t, 200, ks.Threshold(), 1e-9, "looser absolute limit is ignored")
}

func TestKillSwitchBelowLimit(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	ks := frozenKillSwitch(KillSwitchConfig{LimitPct: 0.02, CooldownMinutes: 30, RecoveryRatio: 0.5}, 10000, &now)

	st := ks.Evaluate(-110)
	assert.False(t, st.Active)
	assert.False(t, st.Recovery)
	assert.InDelta(t, 1, st.SizeScale, 1e-9)
}

func TestKillSwitchTripCooldownRecovery(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	ks := frozenKillSwitch(KillSwitchConfig{LimitPct: 0.01, CooldownMinutes: 30, RecoveryRatio: 0.5}, 10000, &now)

	st := ks.Evaluate(-150)
	assert.True(t, st.Active, "loss of 150 breaches the 100 limit")

	now = now.Add(29 * time.Minute)
	st = ks.Evaluate(-150)
	assert.True(t, st.Active, "still cooling down")

	now = now.Add(time.Minute)
	st = ks.Evaluate(-150)
	assert.False(t, st.Active)
	assert.True(t, st.Recovery)
	assert.InDelta(t, 0.5, st.SizeScale, 1e-9)
}

func TestKillSwitchRearmsOnDeeperBreach(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	ks := frozenKillSwitch(KillSwitchConfig{LimitPct: 0.01, CooldownMinutes: 30, RecoveryRatio: 0.5}, 10000, &now)

	ks.Evaluate(-150)
	now = now.Add(30 * time.Minute)
	st := ks.Evaluate(-150)
	assert.True(t, st.Recovery)

	st = ks.Evaluate(-200)
	assert.True(t, st.Recovery, "a shallow extra loss does not re-arm")

	st = ks.Evaluate(-260)
	assert.True(t, st.Active, "a full extra limit of losses re-arms the switch")
	assert.False(t, st.Recovery)
}

func TestKillSwitchDailyReset(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	ks := frozenKillSwitch(KillSwitchConfig{LimitPct: 0.01, CooldownMinutes: 30, RecoveryRatio: 0.5}, 10000, &now)

	st := ks.Evaluate(-150)
	assert.True(t, st.Active)

	now = now.Add(24 * time.Hour)
	st = ks.Evaluate(-10)
	assert.False(t, st.Active, "new day window clears the trigger")
	assert.False(t, st.Recovery)
}
