package signal

import (
	"time"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// WeightedGenerator pairs a sub-generator with its weight in a hybrid blend.
type WeightedGenerator struct {
	Generator Generator
	Weight    float64
}

type hybridGenerator struct {
	members   []WeightedGenerator
	threshold float64
}

// NewHybridGenerator blends the signals of several sub-generators as a
// weighted average, recording each member's contribution in the signal
// components.
func NewHybridGenerator(members []WeightedGenerator, threshold float64) (Generator, error) {
	if len(members) == 0 {
		return nil, errors.New(errors.ErrCodeNoGenerators, "hybrid generator needs at least one member")
	}

	var total float64
	for _, member := range members {
		if member.Generator == nil {
			return nil, errors.New(errors.ErrCodeInvalidParameter, "hybrid member generator is nil")
		}

		if member.Weight < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidWeight, "negative weight %f for member %s", member.Weight, member.Generator.Name())
		}

		total += member.Weight
	}

	if total == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWeight, "hybrid member weights sum to zero")
	}

	if threshold <= 0 || threshold >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "threshold must be in (0, 1), got %f", threshold)
	}

	return &hybridGenerator{
		members:   members,
		threshold: threshold,
	}, nil
}

func (g *hybridGenerator) Name() string {
	return "hybrid"
}

// GenerateSignal delegates to each member and averages their values by
// weight. A failing member is skipped and its weight excluded; if every
// member fails, the last error is returned.
func (g *hybridGenerator) GenerateSignal(current types.Bar, history []types.Bar, ts time.Time) (types.Signal, error) {
	var weighted, used float64

	components := make(map[string]float64, len(g.members))

	var lastErr error

	for _, member := range g.members {
		memberSignal, err := member.Generator.GenerateSignal(current, history, ts)
		if err != nil {
			lastErr = err

			continue
		}

		weighted += memberSignal.Value * member.Weight
		used += member.Weight
		components[member.Generator.Name()] = memberSignal.Value
	}

	if used == 0 {
		if lastErr != nil {
			return types.Signal{}, errors.Wrap(errors.ErrCodeSignalGeneration, "all hybrid members failed", lastErr)
		}

		return types.HoldSignal(g.Name(), ts), nil
	}

	sig := types.NewSignal(weighted/used, g.threshold, g.Name(), ts)
	sig.Components = components

	return sig, nil
}
