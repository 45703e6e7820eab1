package types

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantfox/btcsim/pkg/errors"
)

// PerformanceMetrics aggregates trade-level and run-level statistics.
// Every rate and ratio is zero-safe: with no trades, all fields are zero.
type PerformanceMetrics struct {
	TotalTrades      int `yaml:"total_trades" json:"total_trades"`
	ProfitableTrades int `yaml:"profitable_trades" json:"profitable_trades"`
	LosingTrades     int `yaml:"losing_trades" json:"losing_trades"`

	WinRate      float64 `yaml:"win_rate" json:"win_rate"`
	TotalProfit  float64 `yaml:"total_profit" json:"total_profit"`
	TotalLoss    float64 `yaml:"total_loss" json:"total_loss"`
	NetProfit    float64 `yaml:"net_profit" json:"net_profit"`
	ProfitFactor float64 `yaml:"profit_factor" json:"profit_factor"`
	AverageWin   float64 `yaml:"average_win" json:"average_win"`
	AverageLoss  float64 `yaml:"average_loss" json:"average_loss"`
	LargestWin   float64 `yaml:"largest_win" json:"largest_win"`
	LargestLoss  float64 `yaml:"largest_loss" json:"largest_loss"`

	TotalFees     float64 `yaml:"total_fees" json:"total_fees"`
	TotalSlippage float64 `yaml:"total_slippage" json:"total_slippage"`

	StopLossExitRate   float64 `yaml:"stop_loss_exit_rate" json:"stop_loss_exit_rate"`
	TakeProfitExitRate float64 `yaml:"take_profit_exit_rate" json:"take_profit_exit_rate"`

	// Run-level metrics, filled by the engine from the portfolio value series.
	TotalReturn       float64 `yaml:"total_return" json:"total_return"`
	BuyHoldReturn     float64 `yaml:"buy_hold_return" json:"buy_hold_return"`
	SharpeRatio       float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown       float64 `yaml:"max_drawdown" json:"max_drawdown"`
	FinalValue        float64 `yaml:"final_value" json:"final_value"`
	InitialBalance    float64 `yaml:"initial_balance" json:"initial_balance"`
}

// Report is the exportable simulation summary.
type Report struct {
	GeneratedAt time.Time          `yaml:"generated_at" json:"generated_at"`
	Symbol      string             `yaml:"symbol" json:"symbol"`
	Metrics     PerformanceMetrics `yaml:"metrics" json:"metrics"`
	Summary     string             `yaml:"summary" json:"summary"`
	// Trades is the optional list of completed round trips.
	Trades []ClosedTrade `yaml:"trades,omitempty" json:"trades,omitempty"`
}

// WriteReport serializes the report to a YAML file.
func WriteReport(path string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to marshal report", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to write report to %s", path)
	}

	return nil
}

// ReadReport loads a report previously written with WriteReport.
func ReadReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read report from %s", path)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return Report{}, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to parse report", err)
	}

	return report, nil
}
