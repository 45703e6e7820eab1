package simulator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/indicator"
	"github.com/quantfox/btcsim/internal/types"
)

const (
	syntheticSMAFast = 20
	syntheticSMASlow = 50
	syntheticRSI     = 14

	syntheticSMAValue = 0.5
	syntheticRSIValue = 0.7

	// predictionLookahead is the bar distance used to fabricate a
	// directional prediction from realized price change.
	predictionLookahead = 3
)

// SynthesizeColumns fabricates indicator signal columns and predictions
// for bars that lack them. Only used in synthetic mode, for pipeline tests
// and demos on raw OHLCV data; columns already present are left untouched.
func SynthesizeColumns(bars []types.Bar) []types.Bar {
	out := make([]types.Bar, len(bars))

	for i, bar := range bars {
		history := bars[:i+1]

		if _, ok := bar.Indicator(types.ColumnSMASignal); !ok {
			if value, ok := syntheticSMACross(history); ok {
				bar = bar.WithIndicator(types.ColumnSMASignal, value)
			}
		}

		if _, ok := bar.Indicator(types.ColumnRSI14); !ok {
			if rsi, err := indicator.RSI(history, syntheticRSI); err == nil {
				bar = bar.WithIndicator(types.ColumnRSI14, rsi)
			}
		}

		if _, ok := bar.Indicator(types.ColumnRSISignal); !ok {
			if rsi, ok := bar.Indicator(types.ColumnRSI14); ok {
				bar = bar.WithIndicator(types.ColumnRSISignal, syntheticRSISignal(rsi))
			}
		}

		if bar.Prediction.IsNone() && i >= predictionLookahead {
			bar.Prediction = optional.Some(syntheticPrediction(bars[i-predictionLookahead].Close, bar.Close))
		}

		out[i] = bar
	}

	return out
}

// syntheticSMACross maps a fast/slow SMA cross to a ±0.5 signal.
func syntheticSMACross(history []types.Bar) (float64, bool) {
	fast, err := indicator.SMA(history, syntheticSMAFast)
	if err != nil {
		return 0, false
	}

	slow, err := indicator.SMA(history, syntheticSMASlow)
	if err != nil {
		return 0, false
	}

	if fast > slow {
		return syntheticSMAValue, true
	}

	return -syntheticSMAValue, true
}

// syntheticRSISignal maps oversold/overbought RSI to a ±0.7 signal.
func syntheticRSISignal(rsi float64) float64 {
	switch {
	case rsi < 30:
		return syntheticRSIValue
	case rsi > 70:
		return -syntheticRSIValue
	default:
		return 0
	}
}

// syntheticPrediction derives a direction from the realized price change
// over the lookahead window, with confidence scaled from its magnitude.
func syntheticPrediction(pastClose, currentClose float64) types.Prediction {
	if pastClose == 0 {
		return types.Prediction{}
	}

	change := (currentClose - pastClose) / pastClose

	direction := 0
	switch {
	case change > 0:
		direction = 1
	case change < 0:
		direction = -1
	}

	return types.Prediction{
		Direction:  direction,
		Confidence: math.Min(math.Abs(change)*10, 1),
	}
}
