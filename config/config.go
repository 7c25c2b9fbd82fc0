// Package config loads and validates the full runtime configuration.
// Files may be YAML or JSON; YAML is tried first.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/engine"
	"github.com/polymkt/trader/exec"
	"github.com/polymkt/trader/position"
	"github.com/polymkt/trader/risk"
	"github.com/polymkt/trader/strategies"
)

// Config is the complete runtime configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Markets    MarketsConfig    `json:"markets" yaml:"markets"`
	Engine     engine.Config    `json:"engine" yaml:"engine"`
	Strategies StrategiesConfig `json:"strategies" yaml:"strategies"`

	Consensus     consensus.Config            `json:"consensus" yaml:"consensus"`
	Risk          risk.Config                 `json:"risk" yaml:"risk"`
	Execution     exec.Config                 `json:"execution" yaml:"execution"`
	Exits         position.ExitConfig         `json:"exits" yaml:"exits"`
	StrategyExits position.StrategyExitConfig `json:"strategy_exits" yaml:"strategy_exits"`

	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// AccountConfig holds the trading account parameters.
type AccountConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	Currency       string  `json:"currency" yaml:"currency"`
}

// MarketsConfig selects the tracked markets and the snapshot source.
type MarketsConfig struct {
	IDs []string `json:"ids" yaml:"ids"`
	// FixturePath switches the provider to offline JSONL snapshots.
	FixturePath      string `json:"fixture_path,omitempty" yaml:"fixture_path,omitempty"`
	FetchConcurrency int    `json:"fetch_concurrency" yaml:"fetch_concurrency"`
}

// StrategiesConfig enables evaluators and carries their tuning.
type StrategiesConfig struct {
	Enabled []string `json:"enabled" yaml:"enabled"`

	MeanReversion strategies.MeanReversionConfig `json:"mean_reversion" yaml:"mean_reversion"`
	Momentum      strategies.MomentumConfig      `json:"momentum" yaml:"momentum"`
	MicroArb      strategies.MicroArbConfig      `json:"micro_arbitrage" yaml:"micro_arbitrage"`
	EventDriven   strategies.EventDrivenConfig   `json:"event_driven" yaml:"event_driven"`
}

// JournalConfig locates the persistence sinks.
type JournalConfig struct {
	Dir        string `json:"dir" yaml:"dir"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
}

// TelemetryConfig tunes logging and the metrics endpoint.
type TelemetryConfig struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	Development bool   `json:"development" yaml:"development"`
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	// OrderStreamURL, when set, attaches the websocket order
	// lifecycle feed.
	OrderStreamURL string `json:"order_stream_url,omitempty" yaml:"order_stream_url,omitempty"`
}

// LoadFromFile reads YAML or JSON configuration and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	if len(c.Markets.IDs) == 0 && c.Markets.FixturePath == "" {
		return fmt.Errorf("markets.ids or markets.fixture_path is required")
	}
	if c.Consensus.ConsensusMin < 1 {
		return fmt.Errorf("consensus.consensus_min must be at least 1")
	}
	if c.Consensus.SignalFloor < 0 || c.Consensus.SignalFloor > 1 {
		return fmt.Errorf("consensus.signal_floor must be between 0 and 1")
	}
	if err := c.Execution.Pricing.Validate(); err != nil {
		return fmt.Errorf("execution.pricing: %w", err)
	}
	if c.Execution.RetryAttempts < 1 {
		return fmt.Errorf("execution.retry_attempts must be at least 1")
	}
	if c.Exits.StopLossPct < 0 || c.Exits.TakeProfitPct < 0 {
		return fmt.Errorf("exits stop/take percentages must not be negative")
	}
	if c.Risk.KillSwitch.LimitPct < 0 {
		return fmt.Errorf("risk.kill_switch.limit_pct must not be negative")
	}
	if c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir is required")
	}
	for _, name := range c.Strategies.Enabled {
		switch name {
		case "mean_reversion", "momentum", "micro_arbitrage", "event_driven":
		default:
			return fmt.Errorf("unknown strategy enabled: %s", name)
		}
	}
	if c.Engine.TickIntervalSeconds <= 0 {
		return fmt.Errorf("engine.tick_interval_seconds must be positive")
	}
	return nil
}

// Default returns a runnable baseline configuration.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialBalance: 10000,
			Currency:       "USD",
		},
		Markets: MarketsConfig{
			FetchConcurrency: 8,
		},
		Engine: engine.DefaultConfig(),
		Strategies: StrategiesConfig{
			Enabled:       []string{"mean_reversion", "momentum"},
			MeanReversion: strategies.DefaultMeanReversionConfig(),
			Momentum:      strategies.DefaultMomentumConfig(),
			MicroArb:      strategies.DefaultMicroArbConfig(),
			EventDriven:   strategies.DefaultEventDrivenConfig(),
		},
		Consensus:     consensus.DefaultConfig(),
		Risk:          risk.DefaultConfig(),
		Execution:     exec.DefaultConfig(),
		Exits:         position.DefaultExitConfig(),
		StrategyExits: position.DefaultStrategyExitConfig(),
		Journal: JournalConfig{
			Dir: "./journal",
		},
		Telemetry: TelemetryConfig{
			LogLevel: "info",
		},
	}
}

// BuildEvaluators instantiates the enabled evaluators with their
// configured tuning and returns the consensus weight map.
func (c *Config) BuildEvaluators() ([]strategies.Evaluator, map[string]float64) {
	var evals []strategies.Evaluator
	weights := make(map[string]float64)
	for _, name := range c.Strategies.Enabled {
		switch name {
		case "mean_reversion":
			evals = append(evals, strategies.NewMeanReversion(c.Strategies.MeanReversion))
			weights[name] = c.Strategies.MeanReversion.Weight
		case "momentum":
			evals = append(evals, strategies.NewMomentum(c.Strategies.Momentum))
			weights[name] = c.Strategies.Momentum.Weight
		case "micro_arbitrage":
			evals = append(evals, strategies.NewMicroArb(c.Strategies.MicroArb))
			weights[name] = c.Strategies.MicroArb.Weight
		case "event_driven":
			evals = append(evals, strategies.NewEventDriven(c.Strategies.EventDriven))
			weights[name] = c.Strategies.EventDriven.Weight
		}
	}
	return evals, weights
}
