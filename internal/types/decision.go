package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/pkg/errors"
)

// TradeAction is the action a strategy asks the executor to take.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
	TradeActionHold TradeAction = "hold"
)

// Decision is a strategy's trading instruction for one bar.
//
// Amount is in asset units. A buy decision with a zero Amount delegates
// position sizing to the engine's risk manager.
type Decision struct {
	Action TradeAction `yaml:"action" json:"action" validate:"required,oneof=buy sell hold"`
	Amount float64     `yaml:"amount" json:"amount" validate:"gte=0"`
	// Strategy names the strategy that produced the decision.
	Strategy string    `yaml:"strategy" json:"strategy" validate:"required"`
	Time     time.Time `yaml:"time" json:"time"`
	// Reason is a short human-readable explanation for the decision.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`

	// Price overrides the execution price; unset means execute at the
	// current bar close.
	Price optional.Option[float64] `yaml:"price,omitempty" json:"price,omitempty"`
	// StopLoss overrides the risk manager's stop-loss for the opened position.
	StopLoss optional.Option[float64] `yaml:"stop_loss,omitempty" json:"stop_loss,omitempty"`
	// TakeProfit overrides the risk manager's take-profit for the opened position.
	TakeProfit optional.Option[float64] `yaml:"take_profit,omitempty" json:"take_profit,omitempty"`
}

// Validate checks the decision fields against their constraints.
func (d *Decision) Validate() error {
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDecision, "invalid trade decision", err)
	}

	return nil
}
