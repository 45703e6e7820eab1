package types

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/pkg/errors"
)

// IndicatorColumn names a precomputed indicator value attached to a bar.
type IndicatorColumn string

const (
	ColumnSMASignal       IndicatorColumn = "SMA_Signal"
	ColumnRSISignal       IndicatorColumn = "RSI_Signal"
	ColumnMACDSignal      IndicatorColumn = "MACD_Signal"
	ColumnBollingerSignal IndicatorColumn = "Bollinger_Signal"
	ColumnSMA20           IndicatorColumn = "SMA_20"
	ColumnSMA50           IndicatorColumn = "SMA_50"
	ColumnRSI14           IndicatorColumn = "RSI_14"
	ColumnMACD            IndicatorColumn = "MACD"
	ColumnMACDLine        IndicatorColumn = "MACD_signal"
	ColumnMACDHist        IndicatorColumn = "MACD_hist"
	ColumnATR14           IndicatorColumn = "ATR_14"
	ColumnZScore          IndicatorColumn = "z_score"
)

// Prediction carries a model's directional forecast for one bar.
type Prediction struct {
	// Direction is -1 (down), 0 (flat) or 1 (up).
	Direction int `yaml:"direction" json:"direction" validate:"oneof=-1 0 1"`
	// Confidence is the model's confidence in the direction, in [0, 1].
	Confidence float64 `yaml:"confidence" json:"confidence" validate:"gte=0,lte=1"`
}

// Bar is one OHLCV price record for a fixed time interval, optionally
// annotated with precomputed indicator values and a model prediction.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`

	// Indicators holds optional precomputed indicator columns. A missing key
	// means the upstream pipeline did not supply that indicator.
	Indicators map[IndicatorColumn]float64 `yaml:"indicators,omitempty" json:"indicators,omitempty"`

	// Prediction holds the optional model forecast for this bar.
	Prediction optional.Option[Prediction] `yaml:"prediction,omitempty" json:"prediction,omitempty"`
}

// Indicator returns the named indicator value if present.
func (b Bar) Indicator(column IndicatorColumn) (float64, bool) {
	if b.Indicators == nil {
		return 0, false
	}

	value, ok := b.Indicators[column]

	return value, ok
}

// WithIndicator returns a copy of the bar with the named indicator set.
func (b Bar) WithIndicator(column IndicatorColumn, value float64) Bar {
	indicators := make(map[IndicatorColumn]float64, len(b.Indicators)+1)
	for k, v := range b.Indicators {
		indicators[k] = v
	}

	indicators[column] = value
	b.Indicators = indicators

	return b
}

// ValidateBars checks that the bar series is non-empty and strictly
// increasing by timestamp with no duplicates.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return errors.New(errors.ErrCodeEmptyData, "bar series is empty")
	}

	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Equal(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeDuplicateData, "duplicate timestamp %s at index %d", bars[i].Time, i)
		}

		if bars[i].Time.Before(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeUnorderedData, "timestamp %s at index %d is before its predecessor", bars[i].Time, i)
		}
	}

	return nil
}
