// Package indicator provides rolling indicator calculations over in-memory
// bar windows. The engine feeds each calculator the trailing history slice,
// so everything here is a pure function of its inputs.
package indicator

import (
	"math"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// TrueRange returns the true range of a bar given the previous close.
func TrueRange(bar types.Bar, prevClose float64) float64 {
	highLow := bar.High - bar.Low
	highClose := math.Abs(bar.High - prevClose)
	lowClose := math.Abs(bar.Low - prevClose)

	return math.Max(highLow, math.Max(highClose, lowClose))
}

// ATR computes the Wilder-smoothed average true range over the given bars.
// It needs at least period+1 bars so every true range has a previous close.
func ATR(bars []types.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "ATR period must be positive, got %d", period)
	}

	if len(bars) < period+1 {
		return 0, errors.Newf(errors.ErrCodeInsufficientData, "ATR needs %d bars, got %d", period+1, len(bars))
	}

	// Seed with the simple average of the first period true ranges.
	var sum float64
	for i := 1; i <= period; i++ {
		sum += TrueRange(bars[i], bars[i-1].Close)
	}

	atr := sum / float64(period)

	// Wilder smoothing over the remaining bars.
	for i := period + 1; i < len(bars); i++ {
		tr := TrueRange(bars[i], bars[i-1].Close)
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, nil
}
