// Package strategy contains the trading strategies that turn signals into
// trade decisions. Strategies are closed Go implementations of the Strategy
// interface; the engine calls each one per bar and isolates individual
// failures.
package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/types"
)

// PortfolioView is the read-only portfolio snapshot handed to strategies.
// Strategies size orders from it but never mutate portfolio state; only
// the order executor does that.
type PortfolioView struct {
	Balance     float64
	AssetAmount float64
	TotalValue  float64
}

// Strategy converts the bar's signals into at most one trade decision.
//
// history is the trailing bar window up to and including the current bar,
// oldest first. Returning None means the strategy has nothing to do this
// bar; errors are reserved for malformed inputs.
type Strategy interface {
	// Name identifies the strategy in decisions and logs.
	Name() string

	// GenerateDecision inspects the bar's signals and portfolio snapshot
	// and proposes a trade, or None.
	GenerateDecision(signals []types.Signal, current types.Bar, history []types.Bar, portfolio PortfolioView, ts time.Time) (optional.Option[types.Decision], error)
}

// averageSignalValue returns the strength-weighted average of the signal
// values. Hold signals carry zero strength, so they never dilute a strong
// directional signal; with no weighted signals the result is zero.
func averageSignalValue(signals []types.Signal) float64 {
	var (
		weighted      float64
		totalStrength float64
	)

	for _, sig := range signals {
		weighted += sig.Value * sig.Strength
		totalStrength += sig.Strength
	}

	if totalStrength == 0 {
		return 0
	}

	return weighted / totalStrength
}
