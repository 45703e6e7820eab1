package signal

import (
	"time"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// DefaultConfidenceThreshold is the minimum model confidence a prediction
// needs before it produces a non-hold signal.
const DefaultConfidenceThreshold = 0.6

const (
	// RSI fallback levels when no prediction is attached to the bar.
	rsiOversold      = 30.0
	rsiOverbought    = 70.0
	rsiFallbackValue = 0.7
)

type predictionGenerator struct {
	confidenceThreshold float64
}

// NewPredictionGenerator builds a generator driven by the model prediction
// attached to each bar. Bars without a prediction fall back to the RSI
// column; bars with neither yield a hold signal.
func NewPredictionGenerator(confidenceThreshold float64) (Generator, error) {
	if confidenceThreshold <= 0 || confidenceThreshold > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "confidence threshold must be in (0, 1], got %f", confidenceThreshold)
	}

	return &predictionGenerator{
		confidenceThreshold: confidenceThreshold,
	}, nil
}

func (g *predictionGenerator) Name() string {
	return "model_prediction"
}

func (g *predictionGenerator) GenerateSignal(current types.Bar, _ []types.Bar, ts time.Time) (types.Signal, error) {
	prediction, err := current.Prediction.Take()
	if err == nil {
		if prediction.Confidence < g.confidenceThreshold || prediction.Direction == 0 {
			return types.HoldSignal(g.Name(), ts), nil
		}

		value := float64(prediction.Direction) * prediction.Confidence

		sig := types.NewSignal(value, g.confidenceThreshold/2, g.Name(), ts)
		sig.Strength = prediction.Confidence

		return sig, nil
	}

	return g.rsiFallback(current, ts), nil
}

func (g *predictionGenerator) rsiFallback(current types.Bar, ts time.Time) types.Signal {
	rsi, ok := current.Indicator(types.ColumnRSI14)
	if !ok {
		return types.HoldSignal(g.Name(), ts)
	}

	switch {
	case rsi < rsiOversold:
		return types.NewSignal(rsiFallbackValue, defaultTechnicalThreshold, g.Name(), ts)
	case rsi > rsiOverbought:
		return types.NewSignal(-rsiFallbackValue, defaultTechnicalThreshold, g.Name(), ts)
	default:
		return types.HoldSignal(g.Name(), ts)
	}
}
