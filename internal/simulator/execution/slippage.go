package execution

import (
	"math"
	"math/rand"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// SlippageModelType selects the slippage model.
type SlippageModelType string

const (
	SlippageModelNone         SlippageModelType = "none"
	SlippageModelFixed        SlippageModelType = "fixed"
	SlippageModelRandom       SlippageModelType = "random"
	SlippageModelProportional SlippageModelType = "proportional"
)

// SlippageConfig configures the slippage model.
type SlippageConfig struct {
	Model SlippageModelType `yaml:"model" json:"model" validate:"omitempty,oneof=none fixed random proportional"`
	// Percentage is the rate for the fixed model.
	Percentage float64 `yaml:"percentage" json:"percentage" validate:"gte=0,lt=1"`
	// Min and Max bound the rate for the random and proportional models.
	Min float64 `yaml:"min" json:"min" validate:"gte=0,lt=1"`
	Max float64 `yaml:"max" json:"max" validate:"gte=0,lt=1,gtefield=Min"`
}

// DefaultSlippageConfig returns fixed 0.1% slippage.
func DefaultSlippageConfig() SlippageConfig {
	return SlippageConfig{
		Model:      SlippageModelFixed,
		Percentage: 0.001,
	}
}

// SlippageModel shifts a target price to the fill price. Buys fill at or
// above target, sells at or below; slippage never favors the trader.
type SlippageModel interface {
	Apply(targetPrice float64, action types.TradeAction) float64
}

// GetSlippageModel returns the slippage model for the config. The rng is
// owned by the executor so random slippage stays reproducible run-to-run.
// Unknown model names fail at construction.
func GetSlippageModel(config SlippageConfig, rng *rand.Rand) (SlippageModel, error) {
	switch config.Model {
	case SlippageModelNone, "":
		return &noSlippage{}, nil
	case SlippageModelFixed:
		percentage := config.Percentage
		if percentage == 0 {
			percentage = 0.001
		}

		return &fixedSlippage{percentage: percentage}, nil
	case SlippageModelRandom:
		max := config.Max
		if max == 0 {
			max = 0.002
		}

		return &randomSlippage{min: config.Min, max: max, rng: rng}, nil
	case SlippageModelProportional:
		max := config.Max
		if max == 0 {
			max = 0.002
		}

		return &proportionalSlippage{min: config.Min, max: max}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownSlippageModel, "unknown slippage model %q", config.Model)
	}
}

// adversePrice shifts the price against the trader by the given rate.
func adversePrice(targetPrice, rate float64, action types.TradeAction) float64 {
	if action == types.TradeActionSell {
		return targetPrice * (1 - rate)
	}

	return targetPrice * (1 + rate)
}

type noSlippage struct{}

func (s *noSlippage) Apply(targetPrice float64, _ types.TradeAction) float64 {
	return targetPrice
}

type fixedSlippage struct {
	percentage float64
}

func (s *fixedSlippage) Apply(targetPrice float64, action types.TradeAction) float64 {
	return adversePrice(targetPrice, s.percentage, action)
}

type randomSlippage struct {
	min float64
	max float64
	rng *rand.Rand
}

func (s *randomSlippage) Apply(targetPrice float64, action types.TradeAction) float64 {
	rate := s.min + s.rng.Float64()*(s.max-s.min)

	return adversePrice(targetPrice, rate, action)
}

// proportionalSlippage scales the base rate with price as a crude
// volatility proxy: the rate doubles by the time price reaches $10k.
type proportionalSlippage struct {
	min float64
	max float64
}

func (s *proportionalSlippage) Apply(targetPrice float64, action types.TradeAction) float64 {
	base := (s.min + s.max) / 2
	factor := math.Min(1, targetPrice/10_000)
	rate := base * (1 + factor)

	return adversePrice(targetPrice, rate, action)
}
