package simulator

import (
	"time"

	"github.com/quantfox/btcsim/internal/types"
)

// Diagnostics summarizes a loaded bar series: shape, time coverage and
// which optional columns the data actually carries.
type Diagnostics struct {
	RowCount        int           `yaml:"row_count" json:"row_count"`
	StartTime       time.Time     `yaml:"start_time" json:"start_time"`
	EndTime         time.Time     `yaml:"end_time" json:"end_time"`
	TypicalInterval time.Duration `yaml:"typical_interval" json:"typical_interval"`

	// IndicatorCoverage counts how many bars carry each indicator column.
	IndicatorCoverage map[types.IndicatorColumn]int `yaml:"indicator_coverage" json:"indicator_coverage"`
	// PredictionCount counts bars with an attached prediction.
	PredictionCount int `yaml:"prediction_count" json:"prediction_count"`
}

// DiagnoseBars computes diagnostics for a validated bar series.
func DiagnoseBars(bars []types.Bar) Diagnostics {
	diag := Diagnostics{
		RowCount:          len(bars),
		IndicatorCoverage: make(map[types.IndicatorColumn]int),
	}

	if len(bars) == 0 {
		return diag
	}

	diag.StartTime = bars[0].Time
	diag.EndTime = bars[len(bars)-1].Time

	if len(bars) > 1 {
		// Median gap is robust against a few missing bars.
		diag.TypicalInterval = medianInterval(bars)
	}

	for _, bar := range bars {
		for column := range bar.Indicators {
			diag.IndicatorCoverage[column]++
		}

		if bar.Prediction.IsSome() {
			diag.PredictionCount++
		}
	}

	return diag
}

func medianInterval(bars []types.Bar) time.Duration {
	gaps := make([]time.Duration, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		gaps = append(gaps, bars[i].Time.Sub(bars[i-1].Time))
	}

	// Insertion sort; the slice is small and usually already uniform.
	for i := 1; i < len(gaps); i++ {
		for j := i; j > 0 && gaps[j] < gaps[j-1]; j-- {
			gaps[j], gaps[j-1] = gaps[j-1], gaps[j]
		}
	}

	return gaps[len(gaps)/2]
}
