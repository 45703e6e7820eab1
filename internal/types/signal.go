package types

import "time"

// SignalType is the directional reading of a signal.
type SignalType string

const (
	SignalTypeBuy  SignalType = "buy"
	SignalTypeSell SignalType = "sell"
	SignalTypeHold SignalType = "hold"
)

// Signal is one generator's directional opinion for a single bar.
type Signal struct {
	// Value is the raw signal in [-1, 1]. Positive values lean bullish.
	Value float64 `yaml:"value" json:"value"`
	// Type is the discretized direction derived from Value.
	Type SignalType `yaml:"type" json:"type"`
	// Strength is the absolute conviction of the signal in [0, 1].
	Strength float64 `yaml:"strength" json:"strength"`
	// Time is the bar timestamp the signal was generated for.
	Time time.Time `yaml:"time" json:"time"`
	// Source names the generator that produced the signal.
	Source string `yaml:"source" json:"source"`
	// Components optionally breaks a composite signal down by input, keyed
	// by the contributing generator or indicator name.
	Components map[string]float64 `yaml:"components,omitempty" json:"components,omitempty"`
}

// NewSignal builds a signal from a raw value, deriving type and strength.
// Values above the threshold map to buy, below its negation to sell.
func NewSignal(value float64, threshold float64, source string, ts time.Time) Signal {
	signalType := SignalTypeHold

	switch {
	case value > threshold:
		signalType = SignalTypeBuy
	case value < -threshold:
		signalType = SignalTypeSell
	}

	strength := value
	if strength < 0 {
		strength = -strength
	}

	if strength > 1 {
		strength = 1
	}

	return Signal{
		Value:    value,
		Type:     signalType,
		Strength: strength,
		Time:     ts,
		Source:   source,
	}
}

// HoldSignal returns a neutral signal from the given source.
func HoldSignal(source string, ts time.Time) Signal {
	return Signal{
		Value:    0,
		Type:     SignalTypeHold,
		Strength: 0,
		Time:     ts,
		Source:   source,
	}
}
