package execution

import (
	"github.com/quantfox/btcsim/pkg/errors"
)

// FeeModelType selects the fee model.
type FeeModelType string

const (
	FeeModelNone       FeeModelType = "none"
	FeeModelPercentage FeeModelType = "percentage"
	FeeModelFixed      FeeModelType = "fixed"
	FeeModelTiered     FeeModelType = "tiered"
)

// FeeConfig configures the fee model.
type FeeConfig struct {
	Model FeeModelType `yaml:"model" json:"model" validate:"omitempty,oneof=none percentage fixed tiered"`
	// Percentage is the fee rate for the percentage model.
	Percentage float64 `yaml:"percentage" json:"percentage" validate:"gte=0,lt=1"`
	// Fixed is the flat fee per trade for the fixed model.
	Fixed float64 `yaml:"fixed" json:"fixed" validate:"gte=0"`
}

// DefaultFeeConfig returns a 0.1% percentage fee.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		Model:      FeeModelPercentage,
		Percentage: 0.001,
	}
}

// FeeModel computes the fee charged on a trade of the given notional value.
type FeeModel interface {
	Calculate(tradeValue float64) float64
}

// GetFeeModel returns the fee model for the config. Unknown model names
// fail here so misconfiguration surfaces at construction, not mid-run.
func GetFeeModel(config FeeConfig) (FeeModel, error) {
	switch config.Model {
	case FeeModelNone, "":
		return &noFee{}, nil
	case FeeModelPercentage:
		percentage := config.Percentage
		if percentage == 0 {
			percentage = 0.001
		}

		return &percentageFee{percentage: percentage}, nil
	case FeeModelFixed:
		fixed := config.Fixed
		if fixed == 0 {
			fixed = 5.0
		}

		return &fixedFee{fee: fixed}, nil
	case FeeModelTiered:
		return &tieredFee{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownFeeModel, "unknown fee model %q", config.Model)
	}
}

type noFee struct{}

func (f *noFee) Calculate(float64) float64 {
	return 0
}

type percentageFee struct {
	percentage float64
}

func (f *percentageFee) Calculate(tradeValue float64) float64 {
	return tradeValue * f.percentage
}

type fixedFee struct {
	fee float64
}

func (f *fixedFee) Calculate(tradeValue float64) float64 {
	if tradeValue <= 0 {
		return 0
	}

	return f.fee
}

// tieredFee charges 0.2% below $1k notional, 0.1% below $10k and 0.05%
// above.
type tieredFee struct{}

func (f *tieredFee) Calculate(tradeValue float64) float64 {
	switch {
	case tradeValue < 1_000:
		return tradeValue * 0.002
	case tradeValue < 10_000:
		return tradeValue * 0.001
	default:
		return tradeValue * 0.0005
	}
}
