package risk

import (
	"sync"
	"time"
)

// KillSwitchConfig sets the daily loss limits. LimitPct applies to the
// initial balance; LimitUSD, when positive, is an absolute floor and
// whichever of the two is tighter binds.
type KillSwitchConfig struct {
	LimitPct        float64 `json:"limit_pct" yaml:"limit_pct"`
	LimitUSD        float64 `json:"limit_usd" yaml:"limit_usd"`
	CooldownMinutes int     `json:"cooldown_minutes" yaml:"cooldown_minutes"`
	RecoveryRatio   float64 `json:"recovery_ratio" yaml:"recovery_ratio"`
	ResetHour       int     `json:"reset_hour" yaml:"reset_hour"`
}

func DefaultKillSwitchConfig() KillSwitchConfig {
	return KillSwitchConfig{
		LimitPct:        0.02,
		CooldownMinutes: 60,
		RecoveryRatio:   0.5,
	}
}

// KillSwitchState is the outcome of one evaluation.
type KillSwitchState struct {
	Active   bool
	Recovery bool
	// SizeScale multiplies approved entry sizes: 1 normally, the
	// recovery ratio while recovering.
	SizeScale float64
}

// KillSwitch suppresses new entries after the day's realized pnl
// breaches the loss limit. After the cooldown it moves to a recovery
// state where entries are allowed again at reduced size. Exits are
// never routed through the switch.
type KillSwitch struct {
	cfg     KillSwitchConfig
	balance float64
	now     func() time.Time

	mu            sync.Mutex
	triggeredAt   time.Time
	recovery      bool
	pnlAtRecovery float64
	windowDay     int
}

func NewKillSwitch(cfg KillSwitchConfig, initialBalance float64) *KillSwitch {
	return &KillSwitch{cfg: cfg, balance: initialBalance, now: time.Now}
}

// Threshold returns the binding daily loss magnitude.
func (ks *KillSwitch) Threshold() float64 {
	t := ks.cfg.LimitPct * ks.balance
	if ks.cfg.LimitUSD > 0 && (t <= 0 || ks.cfg.LimitUSD < t) {
		t = ks.cfg.LimitUSD
	}
	return t
}

// Evaluate folds today's realized pnl into the switch state machine and
// returns the current state.
func (ks *KillSwitch) Evaluate(dayPnl float64) KillSwitchState {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	now := ks.now()
	ks.resetIfNewDayLocked(now)

	threshold := ks.Threshold()
	breached := threshold > 0 && dayPnl <= -threshold

	switch {
	case ks.triggeredAt.IsZero():
		if breached {
			ks.triggeredAt = now
			ks.recovery = false
		}
	case !ks.recovery:
		cooldown := time.Duration(ks.cfg.CooldownMinutes) * time.Minute
		if now.Sub(ks.triggeredAt) >= cooldown {
			ks.recovery = true
			ks.pnlAtRecovery = dayPnl
		}
	default:
		// A materially deeper breach while recovering re-arms the
		// switch and starts a fresh cooldown.
		if breached && dayPnl <= ks.pnlAtRecovery-threshold {
			ks.triggeredAt = now
			ks.recovery = false
		}
	}

	st := KillSwitchState{SizeScale: 1}
	if !ks.triggeredAt.IsZero() && !ks.recovery {
		st.Active = true
	}
	if ks.recovery {
		st.Recovery = true
		if ks.cfg.RecoveryRatio > 0 {
			st.SizeScale = ks.cfg.RecoveryRatio
		}
	}
	return st
}

// resetIfNewDayLocked clears the trigger when the configured reset hour
// has rolled over to a new day window.
func (ks *KillSwitch) resetIfNewDayLocked(now time.Time) {
	day := now.UTC().Add(-time.Duration(ks.cfg.ResetHour) * time.Hour).YearDay()
	if ks.windowDay == 0 {
		ks.windowDay = day
		return
	}
	if day != ks.windowDay {
		ks.windowDay = day
		ks.triggeredAt = time.Time{}
		ks.recovery = false
		ks.pnlAtRecovery = 0
	}
}
