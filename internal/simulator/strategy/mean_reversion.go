package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/indicator"
	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const (
	defaultMeanReversionLookback = 20
	defaultMeanReversionZScore   = 2.0
	defaultMeanReversionBuyFrac  = 0.2
)

// meanReversionStrategy fades price extremes: it sells the whole holding
// when price stretches far above the rolling mean and buys a fraction of
// cash when it stretches far below.
type meanReversionStrategy struct {
	lookback    int
	zThreshold  float64
	buyFraction float64
}

// NewMeanReversionStrategy builds the mean reverter. Zero lookback or
// threshold selects the defaults.
func NewMeanReversionStrategy(lookback int, zThreshold float64) (Strategy, error) {
	if lookback == 0 {
		lookback = defaultMeanReversionLookback
	}

	if zThreshold == 0 {
		zThreshold = defaultMeanReversionZScore
	}

	if lookback < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "mean reversion lookback must be at least 2, got %d", lookback)
	}

	if zThreshold <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "z-score threshold must be positive, got %f", zThreshold)
	}

	return &meanReversionStrategy{
		lookback:    lookback,
		zThreshold:  zThreshold,
		buyFraction: defaultMeanReversionBuyFrac,
	}, nil
}

func (s *meanReversionStrategy) Name() string {
	return "mean_reversion"
}

func (s *meanReversionStrategy) GenerateDecision(_ []types.Signal, current types.Bar, history []types.Bar, portfolio PortfolioView, ts time.Time) (optional.Option[types.Decision], error) {
	// Prefer the precomputed z-score column, fall back to computing it
	// from the trailing window.
	zScore, ok := current.Indicator(types.ColumnZScore)
	if !ok {
		if len(history) < s.lookback {
			return optional.None[types.Decision](), nil
		}

		var err error

		zScore, err = indicator.ZScore(history, s.lookback, current.Close)
		if err != nil {
			return optional.None[types.Decision](), err
		}
	}

	price := current.Close

	switch {
	case zScore > s.zThreshold && portfolio.AssetAmount > 0:
		return optional.Some(types.Decision{
			Action:   types.TradeActionSell,
			Amount:   portfolio.AssetAmount,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "price stretched above rolling mean",
		}), nil

	case zScore < -s.zThreshold && portfolio.Balance > 0 && price > 0:
		return optional.Some(types.Decision{
			Action:   types.TradeActionBuy,
			Amount:   portfolio.Balance * s.buyFraction / price,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "price stretched below rolling mean",
		}), nil
	}

	return optional.None[types.Decision](), nil
}
