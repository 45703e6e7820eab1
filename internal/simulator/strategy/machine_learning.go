package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const (
	defaultMLConfidenceThreshold = 0.65

	mlBuyBase  = 0.1
	mlBuySlope = 0.5
	mlBuyCap   = 0.3

	mlSellBase  = 0.3
	mlSellSlope = 0.8
	mlSellCap   = 0.7
)

// machineLearningStrategy sizes trades from the bar's model prediction:
// higher confidence commits a larger fraction of cash on buys and a larger
// fraction of the holding on sells. Bars without a prediction never trade,
// regardless of what the signal generators derived from fallback data.
type machineLearningStrategy struct {
	confidenceThreshold float64
}

// NewMachineLearningStrategy builds the confidence-scaled strategy. A zero
// threshold selects the default.
func NewMachineLearningStrategy(confidenceThreshold float64) (Strategy, error) {
	if confidenceThreshold == 0 {
		confidenceThreshold = defaultMLConfidenceThreshold
	}

	if confidenceThreshold <= 0 || confidenceThreshold > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "confidence threshold must be in (0, 1], got %f", confidenceThreshold)
	}

	return &machineLearningStrategy{
		confidenceThreshold: confidenceThreshold,
	}, nil
}

func (s *machineLearningStrategy) Name() string {
	return "machine_learning"
}

func (s *machineLearningStrategy) GenerateDecision(_ []types.Signal, current types.Bar, _ []types.Bar, portfolio PortfolioView, ts time.Time) (optional.Option[types.Decision], error) {
	prediction, err := current.Prediction.Take()
	if err != nil {
		return optional.None[types.Decision](), nil
	}

	confidence := prediction.Confidence
	if confidence < s.confidenceThreshold {
		return optional.None[types.Decision](), nil
	}

	price := current.Close
	excess := confidence - s.confidenceThreshold

	switch {
	case prediction.Direction > 0 && portfolio.Balance > 0 && price > 0:
		fraction := mlBuyBase + excess*mlBuySlope
		if fraction > mlBuyCap {
			fraction = mlBuyCap
		}

		return optional.Some(types.Decision{
			Action:   types.TradeActionBuy,
			Amount:   portfolio.Balance * fraction / price,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "bullish prediction above confidence threshold",
		}), nil

	case prediction.Direction < 0 && portfolio.AssetAmount > 0:
		fraction := mlSellBase + excess*mlSellSlope
		if fraction > mlSellCap {
			fraction = mlSellCap
		}

		return optional.Some(types.Decision{
			Action:   types.TradeActionSell,
			Amount:   portfolio.AssetAmount * fraction,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "bearish prediction above confidence threshold",
		}), nil
	}

	return optional.None[types.Decision](), nil
}
