package indicator

import (
	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// RSI computes the Wilder relative strength index over the closes of the
// given bars. It needs at least period+1 bars.
func RSI(bars []types.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "RSI period must be positive, got %d", period)
	}

	if len(bars) < period+1 {
		return 0, errors.Newf(errors.ErrCodeInsufficientData, "RSI needs %d bars, got %d", period+1, len(bars))
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close

		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs), nil
}
