package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StrategyConfig holds the tunable parameters of the
// indication/correction/continuation methodology.
type StrategyConfig struct {
	EMAPeriod                int     `yaml:"ema_period"`
	ATRPeriod                int     `yaml:"atr_period"`
	VolumeAvgPeriod          int     `yaml:"volume_avg_period"`
	ContinuationVolumePeriod int     `yaml:"continuation_volume_period"`
	FibMin                   float64 `yaml:"fib_min"`
	FibMax                   float64 `yaml:"fib_max"`
	CorrectionMaxBars        int     `yaml:"correction_max_bars"`
	StopATRMult              float64 `yaml:"stop_atr_mult"`
	TargetATRMult            float64 `yaml:"target_atr_mult"`
	TradeTimeoutBars         int     `yaml:"trade_timeout_bars"`
}

// RiskConfig holds the gate and kill-switch limits.
type RiskConfig struct {
	AccountSize          float64 `yaml:"account_size"`
	DailyLossKillPct     float64 `yaml:"daily_loss_kill_pct"`
	DailyLossPrekillPct  float64 `yaml:"daily_loss_prekill_pct"`
	MaxTradesPerSession  int     `yaml:"max_trades_per_session"`
	MaxOpenPositions     int     `yaml:"max_open_positions"`
	CooldownSeconds      int     `yaml:"cooldown_seconds"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
	CommissionPerSide    float64 `yaml:"commission_per_side"`
	SlippageTicks        int     `yaml:"slippage_ticks"`
}

// InstrumentConfig describes the traded contract.
type InstrumentConfig struct {
	Symbol     string  `yaml:"symbol"`
	TickSize   float64 `yaml:"tick_size"`
	PointValue float64 `yaml:"point_value"`
}

// AlertConfig wires optional alert channels.
type AlertConfig struct {
	ConsoleEnabled bool   `yaml:"console_enabled"`
	EmailEnabled   bool   `yaml:"email_enabled"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPass       string `yaml:"smtp_pass"`
	EmailTo        string `yaml:"email_to"`
	WebhookURL     string `yaml:"webhook_url"`
}

// WebConfig configures the dashboard server.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the root configuration handed to the trading core.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	DBPath     string           `yaml:"db_path"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Risk       RiskConfig       `yaml:"risk"`
	Instrument InstrumentConfig `yaml:"instrument"`
	Alerts     AlertConfig      `yaml:"alerts"`
	Web        WebConfig        `yaml:"web"`
}

// Default returns the stock MES configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		DBPath:   "goicc_trades.db",
		Strategy: StrategyConfig{
			EMAPeriod:                14,
			ATRPeriod:                14,
			VolumeAvgPeriod:          20,
			ContinuationVolumePeriod: 10,
			FibMin:                   0.382,
			FibMax:                   0.618,
			CorrectionMaxBars:        10,
			StopATRMult:              1.5,
			TargetATRMult:            2.5,
			TradeTimeoutBars:         20,
		},
		Risk: RiskConfig{
			AccountSize:          500,
			DailyLossKillPct:     0.20,
			DailyLossPrekillPct:  0.18,
			MaxTradesPerSession:  2,
			MaxOpenPositions:     1,
			CooldownSeconds:      300,
			MaxConsecutiveLosses: 2,
			CommissionPerSide:    2.50,
			SlippageTicks:        1,
		},
		Instrument: InstrumentConfig{
			Symbol:     "MES",
			TickSize:   0.25,
			PointValue: 5.0,
		},
		Alerts: AlertConfig{
			ConsoleEnabled: true,
			SMTPPort:       587,
		},
		Web: WebConfig{
			Addr: ":8787",
		},
	}
}

// Validate checks that all numeric fields are within sensible bounds.
// It returns the first encountered error so a configuration problem
// surfaces clearly before any trading starts.
func (c *StrategyConfig) Validate() error {
	if c.EMAPeriod <= 1 {
		return errors.New("ema_period must be greater than 1")
	}
	if c.ATRPeriod <= 0 {
		return errors.New("atr_period must be positive")
	}
	if c.VolumeAvgPeriod <= 0 || c.ContinuationVolumePeriod <= 0 {
		return errors.New("volume periods must be positive")
	}
	if c.FibMin <= 0 || c.FibMax >= 1 || c.FibMin >= c.FibMax {
		return fmt.Errorf("fib zone [%v, %v] must satisfy 0 < fib_min < fib_max < 1", c.FibMin, c.FibMax)
	}
	if c.CorrectionMaxBars <= 0 {
		return errors.New("correction_max_bars must be positive")
	}
	if c.StopATRMult <= 0 || c.TargetATRMult <= 0 {
		return errors.New("ATR multipliers must be positive")
	}
	if c.TradeTimeoutBars <= 0 {
		return errors.New("trade_timeout_bars must be positive")
	}
	return nil
}

func (c *RiskConfig) Validate() error {
	if c.AccountSize <= 0 {
		return errors.New("account_size must be positive")
	}
	if c.DailyLossKillPct <= 0 || c.DailyLossKillPct > 1 {
		return fmt.Errorf("daily_loss_kill_pct (%v) must be in (0, 1]", c.DailyLossKillPct)
	}
	if c.DailyLossPrekillPct <= 0 || c.DailyLossPrekillPct > c.DailyLossKillPct {
		return fmt.Errorf("daily_loss_prekill_pct (%v) must be in (0, kill_pct]", c.DailyLossPrekillPct)
	}
	if c.MaxTradesPerSession <= 0 {
		return errors.New("max_trades_per_session must be positive")
	}
	if c.MaxOpenPositions != 1 {
		return errors.New("max_open_positions must be 1: the engine holds at most one position")
	}
	if c.CooldownSeconds < 0 {
		return errors.New("cooldown_seconds cannot be negative")
	}
	if c.MaxConsecutiveLosses <= 0 {
		return errors.New("max_consecutive_losses must be positive")
	}
	if c.CommissionPerSide < 0 {
		return errors.New("commission_per_side cannot be negative")
	}
	if c.SlippageTicks < 0 {
		return errors.New("slippage_ticks cannot be negative")
	}
	return nil
}

func (c *InstrumentConfig) Validate() error {
	if c.Symbol == "" {
		return errors.New("instrument symbol is required")
	}
	if c.TickSize <= 0 {
		return errors.New("tick_size must be positive")
	}
	if c.PointValue <= 0 {
		return errors.New("point_value must be positive")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	return c.Instrument.Validate()
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
