package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const (
	defaultTrendThreshold    = 0.5
	defaultTrendCooldown     = 5
	defaultTrendBuyFraction  = 0.3
	defaultTrendSellFraction = 0.5
)

// trendFollowingStrategy buys a fixed fraction of cash when the average
// signal turns strongly bullish and sells part of the holdings when it
// turns strongly bearish, with a cooldown between trades.
//
// The cooldown counter makes the strategy stateful; the engine drives
// strategies from a single goroutine.
type trendFollowingStrategy struct {
	threshold    float64
	cooldown     int
	buyFraction  float64
	sellFraction float64

	barsSinceTrade int
}

// NewTrendFollowingStrategy builds the trend follower. A zero threshold,
// cooldown or fraction selects the default.
func NewTrendFollowingStrategy(threshold float64, cooldown int) (Strategy, error) {
	if threshold == 0 {
		threshold = defaultTrendThreshold
	}

	if cooldown == 0 {
		cooldown = defaultTrendCooldown
	}

	if threshold < 0 || threshold >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "trend threshold must be in (0, 1), got %f", threshold)
	}

	if cooldown < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "trade cooldown must be non-negative, got %d", cooldown)
	}

	return &trendFollowingStrategy{
		threshold:      threshold,
		cooldown:       cooldown,
		buyFraction:    defaultTrendBuyFraction,
		sellFraction:   defaultTrendSellFraction,
		barsSinceTrade: cooldown,
	}, nil
}

func (s *trendFollowingStrategy) Name() string {
	return "trend_following"
}

func (s *trendFollowingStrategy) GenerateDecision(signals []types.Signal, current types.Bar, _ []types.Bar, portfolio PortfolioView, ts time.Time) (optional.Option[types.Decision], error) {
	s.barsSinceTrade++

	if s.barsSinceTrade <= s.cooldown {
		return optional.None[types.Decision](), nil
	}

	avg := averageSignalValue(signals)
	price := current.Close

	switch {
	case avg > s.threshold && portfolio.Balance > 0 && price > 0:
		amount := portfolio.Balance * s.buyFraction / price
		s.barsSinceTrade = 0

		return optional.Some(types.Decision{
			Action:   types.TradeActionBuy,
			Amount:   amount,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "average signal above buy threshold",
		}), nil

	case avg < -s.threshold && portfolio.AssetAmount > 0:
		s.barsSinceTrade = 0

		return optional.Some(types.Decision{
			Action:   types.TradeActionSell,
			Amount:   portfolio.AssetAmount * s.sellFraction,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "average signal below sell threshold",
		}), nil
	}

	return optional.None[types.Decision](), nil
}
