package signal

import (
	"time"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const defaultTechnicalThreshold = 0.3

// defaultTechnicalWeights blends the four standard indicator columns.
var defaultTechnicalWeights = map[types.IndicatorColumn]float64{
	types.ColumnSMASignal:       0.3,
	types.ColumnRSISignal:       0.3,
	types.ColumnMACDSignal:      0.2,
	types.ColumnBollingerSignal: 0.2,
}

type technicalGenerator struct {
	name      string
	weights   map[types.IndicatorColumn]float64
	threshold float64
}

// NewTechnicalGenerator builds a generator that combines precomputed
// indicator signal columns as a weighted average. A nil weights map uses
// the default SMA/RSI/MACD/Bollinger blend.
func NewTechnicalGenerator(weights map[types.IndicatorColumn]float64, threshold float64) (Generator, error) {
	if weights == nil {
		weights = defaultTechnicalWeights
	}

	var total float64
	for column, weight := range weights {
		if weight < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidWeight, "negative weight %f for column %s", weight, column)
		}

		total += weight
	}

	if total == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWeight, "indicator weights sum to zero")
	}

	if threshold <= 0 || threshold >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "threshold must be in (0, 1), got %f", threshold)
	}

	return &technicalGenerator{
		name:      "technical_indicator",
		weights:   weights,
		threshold: threshold,
	}, nil
}

// NewRSIGenerator builds a technical generator focused entirely on the
// RSI signal column.
func NewRSIGenerator() (Generator, error) {
	gen, err := NewTechnicalGenerator(map[types.IndicatorColumn]float64{
		types.ColumnRSISignal: 1.0,
	}, defaultTechnicalThreshold)
	if err != nil {
		return nil, err
	}

	gen.(*technicalGenerator).name = "rsi_indicator"

	return gen, nil
}

// NewMACDGenerator builds a technical generator focused entirely on the
// MACD signal column.
func NewMACDGenerator() (Generator, error) {
	gen, err := NewTechnicalGenerator(map[types.IndicatorColumn]float64{
		types.ColumnMACDSignal: 1.0,
	}, defaultTechnicalThreshold)
	if err != nil {
		return nil, err
	}

	gen.(*technicalGenerator).name = "macd_indicator"

	return gen, nil
}

func (g *technicalGenerator) Name() string {
	return g.name
}

// GenerateSignal averages the available indicator columns by weight.
// Missing columns are skipped and the remaining weights renormalized; a bar
// with none of the configured columns yields a hold signal.
func (g *technicalGenerator) GenerateSignal(current types.Bar, _ []types.Bar, ts time.Time) (types.Signal, error) {
	var weighted, used float64

	components := make(map[string]float64)

	for column, weight := range g.weights {
		value, ok := current.Indicator(column)
		if !ok {
			continue
		}

		weighted += value * weight
		used += weight
		components[string(column)] = value
	}

	if used == 0 {
		return types.HoldSignal(g.name, ts), nil
	}

	sig := types.NewSignal(weighted/used, g.threshold, g.name, ts)
	sig.Components = components

	return sig, nil
}
