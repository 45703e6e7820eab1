package signal

import (
	"time"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const simpleTestValue = 0.8

// simpleTestGenerator emits an alternating buy/sell signal every interval
// bars and holds otherwise. It exists to exercise the full pipeline in
// tests and demos, so its output is deliberately independent of the data.
//
// The generator keeps a call counter, so it is stateful and not safe for
// concurrent use. The engine drives generators from a single goroutine.
type simpleTestGenerator struct {
	interval int
	calls    int
	buyNext  bool
}

// NewSimpleTestGenerator builds the oscillating test generator.
func NewSimpleTestGenerator(interval int) (Generator, error) {
	if interval <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "signal interval must be positive, got %d", interval)
	}

	return &simpleTestGenerator{
		interval: interval,
		buyNext:  true,
	}, nil
}

func (g *simpleTestGenerator) Name() string {
	return "simple_test"
}

func (g *simpleTestGenerator) GenerateSignal(_ types.Bar, _ []types.Bar, ts time.Time) (types.Signal, error) {
	g.calls++

	if g.calls%g.interval != 0 {
		return types.HoldSignal(g.Name(), ts), nil
	}

	value := simpleTestValue
	if !g.buyNext {
		value = -simpleTestValue
	}

	g.buyNext = !g.buyNext

	return types.NewSignal(value, defaultTechnicalThreshold, g.Name(), ts), nil
}
