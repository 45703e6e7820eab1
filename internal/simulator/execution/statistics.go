package execution

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfox/btcsim/internal/types"
)

// TradingStatistics accumulates completed round trips and derives
// performance metrics from them. All metrics are zero-safe: with no trades
// every field is zero.
type TradingStatistics struct {
	closed []types.ClosedTrade
}

// NewTradingStatistics creates an empty statistics accumulator.
func NewTradingStatistics() *TradingStatistics {
	return &TradingStatistics{}
}

// AddTrade records one completed round trip.
func (s *TradingStatistics) AddTrade(trade types.ClosedTrade) {
	s.closed = append(s.closed, trade)
}

// Trades returns the recorded round trips.
func (s *TradingStatistics) Trades() []types.ClosedTrade {
	return s.closed
}

// Reset discards all recorded trades.
func (s *TradingStatistics) Reset() {
	s.closed = nil
}

// CalculateMetrics derives the trade-level metrics. P&L sums use decimal
// arithmetic so long runs don't drift.
func (s *TradingStatistics) CalculateMetrics() types.PerformanceMetrics {
	var metrics types.PerformanceMetrics

	metrics.TotalTrades = len(s.closed)
	if metrics.TotalTrades == 0 {
		return metrics
	}

	var (
		totalProfit = decimal.Zero
		totalLoss   = decimal.Zero
		totalFees   = decimal.Zero
		totalSlip   = decimal.Zero

		stopLossExits   int
		takeProfitExits int
	)

	for _, trade := range s.closed {
		pnl := decimal.NewFromFloat(trade.PnL)

		if trade.IsProfitable() {
			metrics.ProfitableTrades++
			totalProfit = totalProfit.Add(pnl)

			if trade.PnL > metrics.LargestWin {
				metrics.LargestWin = trade.PnL
			}
		} else {
			metrics.LosingTrades++
			totalLoss = totalLoss.Sub(pnl)

			if trade.PnL < metrics.LargestLoss {
				metrics.LargestLoss = trade.PnL
			}
		}

		totalFees = totalFees.Add(decimal.NewFromFloat(trade.Fees))
		totalSlip = totalSlip.Add(decimal.NewFromFloat(trade.Slippage))

		switch trade.ExitReason {
		case types.ExitReasonStopLoss:
			stopLossExits++
		case types.ExitReasonTakeProfit:
			takeProfitExits++
		}
	}

	total := float64(metrics.TotalTrades)

	metrics.TotalProfit, _ = totalProfit.Float64()
	metrics.TotalLoss, _ = totalLoss.Float64()
	metrics.NetProfit, _ = totalProfit.Sub(totalLoss).Float64()
	metrics.TotalFees, _ = totalFees.Float64()
	metrics.TotalSlippage, _ = totalSlip.Float64()

	metrics.WinRate = float64(metrics.ProfitableTrades) / total
	metrics.StopLossExitRate = float64(stopLossExits) / total
	metrics.TakeProfitExitRate = float64(takeProfitExits) / total

	switch {
	case totalLoss.IsPositive():
		metrics.ProfitFactor, _ = totalProfit.Div(totalLoss).Float64()
	case totalProfit.IsPositive():
		// Profits with no losses: the factor is unbounded.
		metrics.ProfitFactor = math.Inf(1)
	}

	if metrics.ProfitableTrades > 0 {
		metrics.AverageWin, _ = totalProfit.Div(decimal.NewFromInt(int64(metrics.ProfitableTrades))).Float64()
	}

	if metrics.LosingTrades > 0 {
		metrics.AverageLoss, _ = totalLoss.Div(decimal.NewFromInt(int64(metrics.LosingTrades))).Float64()
	}

	return metrics
}

// GenerateReport builds the exportable summary. Trade records are included
// only when requested, so large runs can keep reports small.
func (s *TradingStatistics) GenerateReport(symbol string, includeTrades bool) types.Report {
	metrics := s.CalculateMetrics()

	report := types.Report{
		GeneratedAt: time.Now(),
		Symbol:      symbol,
		Metrics:     metrics,
		Summary: fmt.Sprintf("%d trades, win rate %.1f%%, net profit %.2f",
			metrics.TotalTrades, metrics.WinRate*100, metrics.NetProfit),
	}

	if includeTrades {
		report.Trades = s.closed
	}

	return report
}
