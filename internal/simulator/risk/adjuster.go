package risk

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// AdjusterParams configures the dynamic risk adjuster.
type AdjusterParams struct {
	// AdjustmentPeriod is the number of completed trades between
	// multiplier recomputations.
	AdjustmentPeriod int `yaml:"adjustment_period" json:"adjustment_period" validate:"gte=1"`
	// MinMultiplier and MaxMultiplier clamp the computed multiplier.
	MinMultiplier float64 `yaml:"min_multiplier" json:"min_multiplier" validate:"gt=0"`
	MaxMultiplier float64 `yaml:"max_multiplier" json:"max_multiplier" validate:"gt=0,gtefield=MinMultiplier"`
}

// streakGateLength is the number of consecutive wins or losses a streak
// must exceed before it scales the multiplier.
const streakGateLength = 3

// DefaultAdjusterParams returns the standard adjuster configuration.
func DefaultAdjusterParams() AdjusterParams {
	return AdjusterParams{
		AdjustmentPeriod: 10,
		MinMultiplier:    0.5,
		MaxMultiplier:    1.5,
	}
}

// DynamicAdjuster scales position sizing from recent trade outcomes.
// It tracks wins, losses and streaks and recomputes a risk multiplier
// every AdjustmentPeriod completed trades.
type DynamicAdjuster struct {
	params AdjusterParams

	wins              int
	losses            int
	consecutiveWins   int
	consecutiveLosses int
	totalProfit       float64
	totalLoss         float64
	sinceAdjustment   int

	multiplier float64
}

// NewDynamicAdjuster validates the parameters and builds an adjuster with
// a neutral multiplier.
func NewDynamicAdjuster(params AdjusterParams) (*DynamicAdjuster, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid adjuster parameters", err)
	}

	return &DynamicAdjuster{
		params:     params,
		multiplier: 1.0,
	}, nil
}

// Multiplier returns the current risk multiplier.
func (a *DynamicAdjuster) Multiplier() float64 {
	return a.multiplier
}

// RecordTrade feeds one completed trade into the adjuster. Every
// AdjustmentPeriod trades the multiplier is recomputed.
func (a *DynamicAdjuster) RecordTrade(trade types.ClosedTrade) {
	if trade.PnL > 0 {
		a.wins++
		a.consecutiveWins++
		a.consecutiveLosses = 0
		a.totalProfit += trade.PnL
	} else {
		a.losses++
		a.consecutiveLosses++
		a.consecutiveWins = 0
		a.totalLoss += -trade.PnL
	}

	a.sinceAdjustment++
	if a.sinceAdjustment >= a.params.AdjustmentPeriod {
		a.adjust()
		a.sinceAdjustment = 0
	}
}

// adjust recomputes the multiplier from win rate, profit factor and the
// current streak, clamped to [MinMultiplier, MaxMultiplier].
func (a *DynamicAdjuster) adjust() {
	total := a.wins + a.losses
	if total == 0 {
		return
	}

	multiplier := 1.0

	winRate := float64(a.wins) / float64(total)
	switch {
	case winRate > 0.6:
		multiplier *= 1.2
	case winRate < 0.4:
		multiplier *= 0.8
	}

	if a.totalLoss > 0 {
		profitFactor := a.totalProfit / a.totalLoss
		switch {
		case profitFactor > 2:
			multiplier *= 1.2
		case profitFactor < 1:
			multiplier *= 0.8
		}
	}

	// Streaks only move the multiplier once they run longer than three.
	if a.consecutiveLosses > streakGateLength {
		multiplier *= math.Max(0.5, 1-float64(a.consecutiveLosses)*0.1)
	}

	if a.consecutiveWins > streakGateLength {
		multiplier *= math.Min(1.5, 1+float64(a.consecutiveWins)*0.05)
	}

	a.multiplier = math.Min(a.params.MaxMultiplier, math.Max(a.params.MinMultiplier, multiplier))
}

// Reset clears all counters and restores the neutral multiplier.
func (a *DynamicAdjuster) Reset() {
	a.wins = 0
	a.losses = 0
	a.consecutiveWins = 0
	a.consecutiveLosses = 0
	a.totalProfit = 0
	a.totalLoss = 0
	a.sinceAdjustment = 0
	a.multiplier = 1.0
}
