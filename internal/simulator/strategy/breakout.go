package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/indicator"
	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const (
	defaultBreakoutLookback     = 20
	defaultBreakoutATRPeriod    = 14
	defaultBreakoutATRMult      = 2.0
	defaultBreakoutCooldown     = 5
	defaultBreakoutBuyFraction  = 0.25
	defaultBreakoutSellFraction = 0.5
)

// breakoutStrategy trades range breaks: a close beyond the rolling
// high/low by an ATR-scaled margin triggers an entry or exit, with a
// cooldown between trades.
type breakoutStrategy struct {
	lookback      int
	atrPeriod     int
	atrMultiplier float64
	cooldown      int

	barsSinceTrade int
}

// NewBreakoutStrategy builds the breakout trader. Zero parameters select
// the defaults.
func NewBreakoutStrategy(lookback int, atrMultiplier float64, cooldown int) (Strategy, error) {
	if lookback == 0 {
		lookback = defaultBreakoutLookback
	}

	if atrMultiplier == 0 {
		atrMultiplier = defaultBreakoutATRMult
	}

	if cooldown == 0 {
		cooldown = defaultBreakoutCooldown
	}

	if lookback < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "breakout lookback must be at least 2, got %d", lookback)
	}

	if atrMultiplier < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "ATR multiplier must be non-negative, got %f", atrMultiplier)
	}

	if cooldown < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "trade cooldown must be non-negative, got %d", cooldown)
	}

	return &breakoutStrategy{
		lookback:       lookback,
		atrPeriod:      defaultBreakoutATRPeriod,
		atrMultiplier:  atrMultiplier,
		cooldown:       cooldown,
		barsSinceTrade: cooldown,
	}, nil
}

func (s *breakoutStrategy) Name() string {
	return "breakout"
}

func (s *breakoutStrategy) GenerateDecision(_ []types.Signal, current types.Bar, history []types.Bar, portfolio PortfolioView, ts time.Time) (optional.Option[types.Decision], error) {
	s.barsSinceTrade++

	// The window excludes the current bar so the breakout is measured
	// against prior price action.
	if len(history) < s.lookback+1 {
		return optional.None[types.Decision](), nil
	}

	window := history[len(history)-s.lookback-1 : len(history)-1]

	high := window[0].High
	low := window[0].Low

	for _, bar := range window[1:] {
		if bar.High > high {
			high = bar.High
		}

		if bar.Low < low {
			low = bar.Low
		}
	}

	atr := s.rangeMargin(current, history)

	if s.barsSinceTrade <= s.cooldown {
		return optional.None[types.Decision](), nil
	}

	price := current.Close

	switch {
	case price > high+atr*s.atrMultiplier && portfolio.Balance > 0:
		s.barsSinceTrade = 0

		return optional.Some(types.Decision{
			Action:   types.TradeActionBuy,
			Amount:   portfolio.Balance * defaultBreakoutBuyFraction / price,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "close above rolling high",
		}), nil

	case price < low-atr*s.atrMultiplier && portfolio.AssetAmount > 0:
		s.barsSinceTrade = 0

		return optional.Some(types.Decision{
			Action:   types.TradeActionSell,
			Amount:   portfolio.AssetAmount * defaultBreakoutSellFraction,
			Strategy: s.Name(),
			Time:     ts,
			Reason:   "close below rolling low",
		}), nil
	}

	return optional.None[types.Decision](), nil
}

// rangeMargin returns the ATR used to pad the breakout levels, preferring
// the precomputed column and treating an incomputable ATR as zero margin.
func (s *breakoutStrategy) rangeMargin(current types.Bar, history []types.Bar) float64 {
	if atr, ok := current.Indicator(types.ColumnATR14); ok {
		return atr
	}

	atr, err := indicator.ATR(history, s.atrPeriod)
	if err != nil {
		return 0
	}

	return atr
}
