package indicator

import (
	"math"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// SMA computes the simple moving average of the last period closes.
func SMA(bars []types.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "SMA period must be positive, got %d", period)
	}

	if len(bars) < period {
		return 0, errors.Newf(errors.ErrCodeInsufficientData, "SMA needs %d bars, got %d", period, len(bars))
	}

	var sum float64
	for _, bar := range bars[len(bars)-period:] {
		sum += bar.Close
	}

	return sum / float64(period), nil
}

// Mean returns the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of the values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}

// ZScore computes how many standard deviations the given price sits from
// the mean close of the last lookback bars. Returns zero when the window
// has no variance.
func ZScore(bars []types.Bar, lookback int, price float64) (float64, error) {
	if lookback <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "z-score lookback must be positive, got %d", lookback)
	}

	if len(bars) < lookback {
		return 0, errors.Newf(errors.ErrCodeInsufficientData, "z-score needs %d bars, got %d", lookback, len(bars))
	}

	window := bars[len(bars)-lookback:]
	closes := make([]float64, len(window))
	for i, bar := range window {
		closes[i] = bar.Close
	}

	std := StdDev(closes)
	if std == 0 {
		return 0, nil
	}

	return (price - Mean(closes)) / std, nil
}
