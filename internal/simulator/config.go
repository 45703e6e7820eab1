package simulator

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/quantfox/btcsim/internal/simulator/execution"
	"github.com/quantfox/btcsim/internal/simulator/risk"
	"github.com/quantfox/btcsim/pkg/errors"
)

// Config configures a simulation engine.
type Config struct {
	// Symbol names the traded asset, e.g. BTC-USD.
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	// InitialBalance is the starting cash balance.
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" validate:"gt=0"`
	// LookbackWindow is the number of trailing bars handed to generators
	// and strategies.
	LookbackWindow int `yaml:"lookback_window" json:"lookback_window" validate:"gte=2"`
	// SyntheticMode fabricates missing indicator and prediction columns
	// at load time. Off by default; real data should carry its own.
	SyntheticMode bool `yaml:"synthetic_mode" json:"synthetic_mode"`
	// MaxSteps caps the number of steps RunSimulation executes. Zero
	// means no cap.
	MaxSteps int `yaml:"max_steps" json:"max_steps" validate:"gte=0"`
	// TrailingStopEnabled arms trailing stops on opened positions.
	TrailingStopEnabled bool `yaml:"trailing_stop_enabled" json:"trailing_stop_enabled"`

	Risk     risk.Params         `yaml:"risk" json:"risk"`
	Adjuster risk.AdjusterParams `yaml:"adjuster" json:"adjuster"`
	Executor execution.Config    `yaml:"executor" json:"executor"`
}

// DefaultConfig returns a runnable configuration.
func DefaultConfig() Config {
	return Config{
		Symbol:              "BTC-USD",
		InitialBalance:      10_000,
		LookbackWindow:      100,
		TrailingStopEnabled: true,
		Risk:                risk.DefaultParams(),
		Adjuster:            risk.DefaultAdjusterParams(),
		Executor:            execution.DefaultConfig(),
	}
}

// Validate checks the configuration constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid simulator configuration", err)
	}

	return nil
}

// ParseConfig unmarshals YAML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse configuration", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// ReadConfig loads and validates a YAML configuration file.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read configuration from %s", path)
	}

	return ParseConfig(data)
}

// GenerateSchema returns the JSON schema for the configuration.
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// GenerateSchemaJSON returns the configuration schema as indented JSON,
// for hosting applications that render a config UI.
func GenerateSchemaJSON() (string, error) {
	schema := GenerateSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
