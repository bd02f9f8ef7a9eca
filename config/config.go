package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (fundamentals cache)
	Redis RedisConfig `yaml:"redis"`

	// Market data configuration
	Data DataConfig `yaml:"data"`

	// Alpaca configuration (alternative price provider)
	Alpaca AlpacaConfig `yaml:"alpaca"`

	// Indicator windows
	Indicators IndicatorConfig `yaml:"indicators"`

	// Per-signal thresholds
	Signals SignalConfig `yaml:"signals"`

	// Scanner configuration
	Scanner ScannerConfig `yaml:"scanner"`

	// Risk management configuration
	Risk RiskConfig `yaml:"risk_management"`

	// Trade monitor configuration
	Monitor MonitorConfig `yaml:"trade_monitor"`

	// Fundamentals configuration
	Fundamentals FundamentalsConfig `yaml:"fundamentals"`

	// HTTP configuration
	HTTP HTTPConfig `yaml:"http"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis connection used for the fundamentals cache
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DataConfig selects the price provider and the bar window fetched per ticker
type DataConfig struct {
	Provider string `yaml:"provider"` // yahoo or alpaca
	Period   string `yaml:"period"`   // e.g. 6mo
	Interval string `yaml:"interval"` // e.g. 1d
}

// AlpacaConfig holds Alpaca API configuration
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// IndicatorConfig holds the indicator computation windows
type IndicatorConfig struct {
	BBWindow  int     `yaml:"bb_window"`
	BBDev     float64 `yaml:"bb_dev"`
	ATRWindow int     `yaml:"atr_window"`
	ADXWindow int     `yaml:"adx_window"`
	RSIWindow int     `yaml:"rsi_window"`
}

// SignalConfig holds the per-signal thresholds
type SignalConfig struct {
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	BuyTheDip     BuyTheDipConfig     `yaml:"buy_the_dip"`
	Breakout      BreakoutConfig      `yaml:"breakout"`
	VolumeSpike   VolumeSpikeConfig   `yaml:"volume_spike"`
	EMABullish    EMABullishConfig    `yaml:"ema_bullish"`
	MACDBullish   MACDBullishConfig   `yaml:"macd_bullish"`
	VWAPReclaim   VWAPReclaimConfig   `yaml:"vwap_reclaim"`
}

type ConsolidationConfig struct {
	Lookback       int     `yaml:"lookback"`
	BBWidthMeanMax float64 `yaml:"bb_width_mean_max"`
	ATRPctMeanMax  float64 `yaml:"atr_pct_mean_max"`
	ADXMeanMax     float64 `yaml:"adx_mean_max"`
}

type BuyTheDipConfig struct {
	RSIMax           float64 `yaml:"rsi_max"`
	CloseBelowLowerBB bool   `yaml:"close_below_lower_bb"`
}

type BreakoutConfig struct {
	Lookback int     `yaml:"lookback"`
	ADXMin   float64 `yaml:"adx_min"`
}

type VolumeSpikeConfig struct {
	VolumeMultiplier float64 `yaml:"volume_multiplier"`
}

type EMABullishConfig struct {
	MinSeparationPct float64 `yaml:"min_separation_pct"`
}

type MACDBullishConfig struct {
	HistogramMin float64 `yaml:"histogram_min"`
}

type VWAPReclaimConfig struct {
	Lookback         int     `yaml:"lookback"`
	MinCloseAbovePct float64 `yaml:"min_close_above_pct"`
}

// ScannerConfig holds scan concurrency and universe configuration
type ScannerConfig struct {
	MaxWorkers       int      `yaml:"max_workers"`
	TickerTimeoutSec int      `yaml:"ticker_timeout_sec"`
	MinBars          int      `yaml:"min_bars"`
	SP500            []string `yaml:"sp500"`
	Nasdaq100        []string `yaml:"nasdaq100"`
	Popular          []string `yaml:"popular"`
}

// RiskConfig holds trade creation and daily risk limits
type RiskConfig struct {
	MinSignalScore        int     `yaml:"min_signal_score"`
	RiskPerTradeDollars   float64 `yaml:"risk_per_trade_dollars"`
	StopLossATRMultiplier float64 `yaml:"stop_loss_atr_multiplier"`
	UseFixedStopPct       bool    `yaml:"use_fixed_stop_pct"`
	FixedStopPct          float64 `yaml:"fixed_stop_pct"`
	MaxDailyLossR         float64 `yaml:"max_daily_loss_r"`
	MaxConcurrentTrades   int     `yaml:"max_concurrent_trades"`
}

// MonitorConfig holds the trade monitor loop configuration
type MonitorConfig struct {
	CheckIntervalMinutes int  `yaml:"check_interval_minutes"`
	SendDailySummary     bool `yaml:"send_daily_summary"`
	DailySummaryHour     int  `yaml:"daily_summary_hour"`
}

// FundamentalsConfig controls the cached fundamentals provider
type FundamentalsConfig struct {
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration defaults. YAML and environment
// overrides are applied on top of these.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Provider: "yahoo",
			Period:   "6mo",
			Interval: "1d",
		},
		Alpaca: AlpacaConfig{
			BaseURL: "https://paper-api.alpaca.markets",
		},
		Indicators: IndicatorConfig{
			BBWindow:  20,
			BBDev:     2.0,
			ATRWindow: 14,
			ADXWindow: 14,
			RSIWindow: 14,
		},
		Signals: SignalConfig{
			Consolidation: ConsolidationConfig{
				Lookback:       20,
				BBWidthMeanMax: 0.06,
				ATRPctMeanMax:  0.025,
				ADXMeanMax:     20,
			},
			BuyTheDip: BuyTheDipConfig{
				RSIMax:            35,
				CloseBelowLowerBB: true,
			},
			Breakout: BreakoutConfig{
				Lookback: 20,
				ADXMin:   18,
			},
			VolumeSpike: VolumeSpikeConfig{
				VolumeMultiplier: 1.5,
			},
			EMABullish: EMABullishConfig{
				MinSeparationPct: 0.5,
			},
			MACDBullish: MACDBullishConfig{
				HistogramMin: 0.0,
			},
			VWAPReclaim: VWAPReclaimConfig{
				Lookback:         20,
				MinCloseAbovePct: 0.2,
			},
		},
		Scanner: ScannerConfig{
			MaxWorkers:       20,
			TickerTimeoutSec: 30,
			MinBars:          50,
		},
		Risk: RiskConfig{
			MinSignalScore:        5,
			RiskPerTradeDollars:   100,
			StopLossATRMultiplier: 1.5,
			UseFixedStopPct:       false,
			FixedStopPct:          2.0,
			MaxDailyLossR:         3.0,
			MaxConcurrentTrades:   10,
		},
		Monitor: MonitorConfig{
			CheckIntervalMinutes: 5,
			SendDailySummary:     true,
			DailySummaryHour:     16,
		},
		Fundamentals: FundamentalsConfig{
			CacheTTLHours: 6,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file named
// by CONFIG_FILE (default config.yaml), then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	path := getEnvString("CONFIG_FILE", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.URL = getEnvString("DATABASE_URL", c.Database.URL)
	c.Redis.URL = getEnvString("REDIS_URL", c.Redis.URL)

	c.Data.Provider = getEnvString("DATA_PROVIDER", c.Data.Provider)
	c.Data.Period = getEnvString("DATA_PERIOD", c.Data.Period)
	c.Data.Interval = getEnvString("DATA_INTERVAL", c.Data.Interval)

	c.Alpaca.APIKey = getEnvString("ALPACA_API_KEY", c.Alpaca.APIKey)
	c.Alpaca.APISecret = getEnvString("ALPACA_API_SECRET", c.Alpaca.APISecret)
	c.Alpaca.BaseURL = getEnvString("ALPACA_BASE_URL", c.Alpaca.BaseURL)

	c.Scanner.MaxWorkers = getEnvInt("SCANNER_MAX_WORKERS", c.Scanner.MaxWorkers)
	c.Scanner.TickerTimeoutSec = getEnvInt("SCANNER_TICKER_TIMEOUT_SEC", c.Scanner.TickerTimeoutSec)

	c.Risk.MinSignalScore = getEnvInt("RISK_MIN_SIGNAL_SCORE", c.Risk.MinSignalScore)
	c.Risk.RiskPerTradeDollars = getEnvFloat("RISK_PER_TRADE_DOLLARS", c.Risk.RiskPerTradeDollars)
	c.Risk.StopLossATRMultiplier = getEnvFloat("RISK_STOP_LOSS_ATR_MULT", c.Risk.StopLossATRMultiplier)
	c.Risk.MaxDailyLossR = getEnvFloat("RISK_MAX_DAILY_LOSS_R", c.Risk.MaxDailyLossR)
	c.Risk.MaxConcurrentTrades = getEnvInt("RISK_MAX_CONCURRENT_TRADES", c.Risk.MaxConcurrentTrades)

	c.Monitor.CheckIntervalMinutes = getEnvInt("MONITOR_CHECK_INTERVAL_MINUTES", c.Monitor.CheckIntervalMinutes)
	c.Monitor.DailySummaryHour = getEnvInt("MONITOR_DAILY_SUMMARY_HOUR", c.Monitor.DailySummaryHour)
	c.Monitor.SendDailySummary = getEnvBool("MONITOR_SEND_DAILY_SUMMARY", c.Monitor.SendDailySummary)

	c.Fundamentals.CacheTTLHours = getEnvInt("FUNDAMENTALS_CACHE_TTL_HOURS", c.Fundamentals.CacheTTLHours)

	c.HTTP.Addr = getEnvString("HTTP_ADDR", c.HTTP.Addr)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Data.Provider != "yahoo" && c.Data.Provider != "alpaca" {
		return fmt.Errorf("DATA_PROVIDER must be yahoo or alpaca, got %q", c.Data.Provider)
	}
	if c.Scanner.MaxWorkers <= 0 {
		return fmt.Errorf("SCANNER_MAX_WORKERS must be positive, got %d", c.Scanner.MaxWorkers)
	}
	if c.Scanner.TickerTimeoutSec <= 0 {
		return fmt.Errorf("SCANNER_TICKER_TIMEOUT_SEC must be positive, got %d", c.Scanner.TickerTimeoutSec)
	}
	if c.Risk.StopLossATRMultiplier <= 0 {
		return fmt.Errorf("RISK_STOP_LOSS_ATR_MULT must be positive, got %.2f", c.Risk.StopLossATRMultiplier)
	}
	if c.Risk.RiskPerTradeDollars <= 0 {
		return fmt.Errorf("RISK_PER_TRADE_DOLLARS must be positive, got %.2f", c.Risk.RiskPerTradeDollars)
	}
	if c.Risk.MaxDailyLossR <= 0 {
		return fmt.Errorf("RISK_MAX_DAILY_LOSS_R must be positive, got %.2f", c.Risk.MaxDailyLossR)
	}
	if c.Monitor.CheckIntervalMinutes <= 0 {
		return fmt.Errorf("MONITOR_CHECK_INTERVAL_MINUTES must be positive, got %d", c.Monitor.CheckIntervalMinutes)
	}
	if c.Monitor.DailySummaryHour < 0 || c.Monitor.DailySummaryHour > 23 {
		return fmt.Errorf("MONITOR_DAILY_SUMMARY_HOUR must be 0-23, got %d", c.Monitor.DailySummaryHour)
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasRedis returns true if Redis configuration is available
func (c *Config) HasRedis() bool {
	return c.Redis.URL != ""
}

// HasAlpaca returns true if Alpaca credentials are available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return Default()
}
