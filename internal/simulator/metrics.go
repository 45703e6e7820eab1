package simulator

import (
	"math"

	"github.com/quantfox/btcsim/internal/indicator"
	"github.com/quantfox/btcsim/internal/types"
)

// annualizationFactor assumes daily bars when annualizing the Sharpe
// ratio, matching the upstream research pipeline.
const annualizationFactor = 252

// fillRunMetrics adds the portfolio-level metrics derived from the value
// series: total return, buy-and-hold comparison, Sharpe ratio and maximum
// drawdown. All zero-safe on empty or flat series.
func (e *Engine) fillRunMetrics(metrics *types.PerformanceMetrics) {
	metrics.InitialBalance = e.config.InitialBalance
	metrics.FinalValue = e.config.InitialBalance

	if len(e.history) == 0 {
		return
	}

	final := e.history[len(e.history)-1].Value
	metrics.FinalValue = final

	if e.config.InitialBalance > 0 {
		metrics.TotalReturn = final/e.config.InitialBalance - 1
	}

	if first := e.bars[0].Close; first > 0 {
		metrics.BuyHoldReturn = e.bars[len(e.bars)-1].Close/first - 1
	}

	metrics.SharpeRatio = sharpeRatio(e.valueSeries())
	metrics.MaxDrawdown = maxDrawdown(e.valueSeries())
}

func (e *Engine) valueSeries() []float64 {
	values := make([]float64, len(e.history))
	for i, point := range e.history {
		values[i] = point.Value
	}

	return values
}

// sharpeRatio computes the annualized Sharpe ratio of the per-step returns
// of the value series, with a zero risk-free rate.
func sharpeRatio(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}

		returns = append(returns, values[i]/values[i-1]-1)
	}

	if len(returns) == 0 {
		return 0
	}

	std := indicator.StdDev(returns)
	if std == 0 {
		return 0
	}

	return indicator.Mean(returns) / std * math.Sqrt(annualizationFactor)
}

// maxDrawdown returns the largest peak-to-trough decline of the value
// series, as a positive fraction.
func maxDrawdown(values []float64) float64 {
	var (
		peak     float64
		drawdown float64
	)

	for _, value := range values {
		if value > peak {
			peak = value
		}

		if peak > 0 {
			if dd := (peak - value) / peak; dd > drawdown {
				drawdown = dd
			}
		}
	}

	return drawdown
}
