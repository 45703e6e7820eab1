package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionType is the direction of an open position.
type PositionType string

const (
	PositionTypeLong PositionType = "long"
)

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "stop_loss"
	ExitReasonTakeProfit ExitReason = "take_profit"
	ExitReasonStrategy   ExitReason = "strategy"
)

// Position is an open holding tracked by the engine. The engine owns the
// symbol → Position map; positions transition open → (updated)* → closed.
type Position struct {
	ID         string       `yaml:"id" json:"id"`
	Symbol     string       `yaml:"symbol" json:"symbol"`
	Type       PositionType `yaml:"type" json:"type"`
	EntryPrice float64      `yaml:"entry_price" json:"entry_price"`
	Amount     float64      `yaml:"amount" json:"amount"`
	EntryTime  time.Time    `yaml:"entry_time" json:"entry_time"`
	// EntryFee is the fee paid to open the position, charged against
	// realized P&L on close.
	EntryFee float64 `yaml:"entry_fee" json:"entry_fee"`
	// EntrySlippage is the slippage cost of the entry fill, prorated on
	// partial exits the same way as EntryFee.
	EntrySlippage float64 `yaml:"entry_slippage" json:"entry_slippage"`

	StopLoss   float64 `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit float64 `yaml:"take_profit" json:"take_profit"`

	// HighestPrice is the highest close seen since entry, used to ratchet
	// the trailing stop.
	HighestPrice        float64 `yaml:"highest_price" json:"highest_price"`
	TrailingStopEnabled bool    `yaml:"trailing_stop_enabled" json:"trailing_stop_enabled"`
	TrailingStopPercent float64 `yaml:"trailing_stop_percent" json:"trailing_stop_percent"`
}

// NewPosition opens a long position with a fresh identifier.
func NewPosition(symbol string, entryPrice, amount, stopLoss, takeProfit, entryFee float64, entryTime time.Time) *Position {
	return &Position{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Type:         PositionTypeLong,
		EntryPrice:   entryPrice,
		Amount:       amount,
		EntryTime:    entryTime,
		EntryFee:     entryFee,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		HighestPrice: entryPrice,
	}
}

// UnrealizedPnL returns the mark-to-market P&L of the position at the
// given price, before exit fees.
func (p *Position) UnrealizedPnL(price float64) float64 {
	pnl := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(p.EntryPrice)).
		Mul(decimal.NewFromFloat(p.Amount)).
		Sub(decimal.NewFromFloat(p.EntryFee))

	result, _ := pnl.Float64()

	return result
}

// Trade is one executed fill recorded by the order executor.
type Trade struct {
	ID          string      `yaml:"id" json:"id"`
	Action      TradeAction `yaml:"action" json:"action"`
	Amount      float64     `yaml:"amount" json:"amount"`
	TargetPrice float64     `yaml:"target_price" json:"target_price"`
	// ExecutionPrice is the fill price after slippage.
	ExecutionPrice float64 `yaml:"execution_price" json:"execution_price"`
	// Value is Amount × ExecutionPrice, before fees.
	Value       float64   `yaml:"value" json:"value"`
	Fee         float64   `yaml:"fee" json:"fee"`
	Slippage    float64   `yaml:"slippage" json:"slippage"`
	SlippagePct float64   `yaml:"slippage_pct" json:"slippage_pct"`
	Time        time.Time `yaml:"time" json:"time"`
	Strategy    string    `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	// BalanceAfter and AssetAfter snapshot the portfolio after the fill.
	BalanceAfter float64 `yaml:"balance_after" json:"balance_after"`
	AssetAfter   float64 `yaml:"asset_after" json:"asset_after"`
}

// ClosedTrade is a completed round trip: a position entry matched with its
// exit fill. Statistics and the dynamic risk adjuster consume these.
type ClosedTrade struct {
	PositionID string     `yaml:"position_id" json:"position_id"`
	Symbol     string     `yaml:"symbol" json:"symbol"`
	EntryPrice float64    `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64    `yaml:"exit_price" json:"exit_price"`
	Amount     float64    `yaml:"amount" json:"amount"`
	EntryTime  time.Time  `yaml:"entry_time" json:"entry_time"`
	ExitTime   time.Time  `yaml:"exit_time" json:"exit_time"`
	ExitReason ExitReason `yaml:"exit_reason" json:"exit_reason"`
	// Fees and Slippage sum the entry and exit costs for the round trip.
	Fees     float64 `yaml:"fees" json:"fees"`
	Slippage float64 `yaml:"slippage" json:"slippage"`
	// PnL is the realized profit or loss net of fees.
	PnL float64 `yaml:"pnl" json:"pnl"`
}

// NewClosedTrade builds the completed-trade record for a position exit,
// computing net realized P&L with decimal arithmetic.
func NewClosedTrade(position *Position, exit Trade, reason ExitReason) ClosedTrade {
	fees := decimal.NewFromFloat(position.EntryFee).Add(decimal.NewFromFloat(exit.Fee))
	slippage := decimal.NewFromFloat(position.EntrySlippage).Add(decimal.NewFromFloat(exit.Slippage))

	pnl := decimal.NewFromFloat(exit.ExecutionPrice).
		Sub(decimal.NewFromFloat(position.EntryPrice)).
		Mul(decimal.NewFromFloat(exit.Amount)).
		Sub(fees)

	pnlF, _ := pnl.Float64()
	feesF, _ := fees.Float64()
	slippageF, _ := slippage.Float64()

	return ClosedTrade{
		PositionID: position.ID,
		Symbol:     position.Symbol,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exit.ExecutionPrice,
		Amount:     exit.Amount,
		EntryTime:  position.EntryTime,
		ExitTime:   exit.Time,
		ExitReason: reason,
		Fees:       feesF,
		Slippage:   slippageF,
		PnL:        pnlF,
	}
}

// IsProfitable reports whether the round trip ended with positive P&L.
func (t ClosedTrade) IsProfitable() bool {
	return t.PnL > 0
}
