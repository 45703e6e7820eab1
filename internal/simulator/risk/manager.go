// Package risk provides position sizing, protective level calculation and
// adaptive risk scaling for the simulation engine.
package risk

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// Params configures the risk manager.
type Params struct {
	// RiskPerTrade is the fraction of the balance put at risk per trade.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade" validate:"gt=0,lte=1"`
	// MaxRiskMultiplier scales risk up with signal strength; strength 1
	// risks RiskPerTrade × MaxRiskMultiplier.
	MaxRiskMultiplier float64 `yaml:"max_risk_multiplier" json:"max_risk_multiplier" validate:"gte=1"`
	// StopLossATRMultiplier sets the stop distance in ATR units.
	StopLossATRMultiplier float64 `yaml:"stop_loss_atr_multiplier" json:"stop_loss_atr_multiplier" validate:"gt=0"`
	// StopLossFallbackPercent is the stop distance when no ATR is available.
	StopLossFallbackPercent float64 `yaml:"stop_loss_fallback_percent" json:"stop_loss_fallback_percent" validate:"gt=0,lt=1"`
	// TakeProfitRiskRatio sets the take-profit distance as a multiple of
	// the stop distance.
	TakeProfitRiskRatio float64 `yaml:"take_profit_risk_ratio" json:"take_profit_risk_ratio" validate:"gt=0"`
	// MinRiskPerTrade and MaxRiskPerTrade clamp adaptive adjustment.
	MinRiskPerTrade float64 `yaml:"min_risk_per_trade" json:"min_risk_per_trade" validate:"gt=0"`
	MaxRiskPerTrade float64 `yaml:"max_risk_per_trade" json:"max_risk_per_trade" validate:"gt=0,gtefield=MinRiskPerTrade"`
	// TrailingStopPercent is the trailing stop distance from the highest price.
	TrailingStopPercent float64 `yaml:"trailing_stop_percent" json:"trailing_stop_percent" validate:"gt=0,lt=1"`
}

// DefaultParams returns the standard risk configuration.
func DefaultParams() Params {
	return Params{
		RiskPerTrade:            0.02,
		MaxRiskMultiplier:       2.0,
		StopLossATRMultiplier:   2.0,
		StopLossFallbackPercent: 0.05,
		TakeProfitRiskRatio:     2.0,
		MinRiskPerTrade:         0.01,
		MaxRiskPerTrade:         0.05,
		TrailingStopPercent:     0.02,
	}
}

const (
	// maxBalanceFraction caps any single position's cash commitment.
	maxBalanceFraction = 0.95
	// sizingFallbackDistance sizes positions when the stop distance
	// degenerates to zero.
	sizingFallbackDistance = 0.02
	// minTradesForAdjustment gates win-rate driven parameter updates.
	minTradesForAdjustment = 10
)

// Manager sizes positions and computes protective levels.
type Manager struct {
	params Params
}

// NewManager validates the parameters and builds a risk manager.
func NewManager(params Params) (*Manager, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid risk parameters", err)
	}

	return &Manager{params: params}, nil
}

// Params returns the current parameters.
func (m *Manager) Params() Params {
	return m.params
}

// CalculatePositionSize returns the asset amount to buy for the given
// balance, price, signal strength and optional ATR. The risk amount grows
// linearly with strength up to MaxRiskMultiplier, is divided by the stop
// distance, and the result is capped so the position never commits more
// than 95% of the balance.
func (m *Manager) CalculatePositionSize(balance, price, strength float64, atr optional.Option[float64]) float64 {
	if balance <= 0 || price <= 0 {
		return 0
	}

	if strength < 0 {
		strength = 0
	}

	if strength > 1 {
		strength = 1
	}

	multiplier := 1 + (m.params.MaxRiskMultiplier-1)*strength
	riskAmount := balance * m.params.RiskPerTrade * multiplier

	stopLoss, _ := m.CalculateStopLossTakeProfit(price, atr)

	distance := price - stopLoss
	if distance <= 0 {
		distance = price * sizingFallbackDistance
	}

	amount := riskAmount / distance

	maxAmount := balance * maxBalanceFraction / price
	if amount > maxAmount {
		amount = maxAmount
	}

	return amount
}

// CalculateStopLossTakeProfit returns the stop-loss and take-profit levels
// for a long entry. The stop distance is ATR × StopLossATRMultiplier when
// an ATR is supplied, otherwise StopLossFallbackPercent of the entry price;
// the take-profit distance is the stop distance × TakeProfitRiskRatio.
func (m *Manager) CalculateStopLossTakeProfit(entryPrice float64, atr optional.Option[float64]) (float64, float64) {
	distance := entryPrice * m.params.StopLossFallbackPercent

	if value, err := atr.Take(); err == nil && value > 0 {
		distance = value * m.params.StopLossATRMultiplier
	}

	stopLoss := entryPrice - distance
	if stopLoss < 0 {
		stopLoss = 0
	}

	takeProfit := entryPrice + distance*m.params.TakeProfitRiskRatio

	return stopLoss, takeProfit
}

// UpdateRiskParameters adapts the per-trade risk to recent performance:
// a win rate above 0.6 scales it up 10%, below 0.4 scales it down 10%,
// clamped to [MinRiskPerTrade, MaxRiskPerTrade]. Updates are skipped until
// enough trades have completed.
func (m *Manager) UpdateRiskParameters(metrics types.PerformanceMetrics) {
	if metrics.TotalTrades < minTradesForAdjustment {
		return
	}

	switch {
	case metrics.WinRate > 0.6:
		m.params.RiskPerTrade *= 1.1
	case metrics.WinRate < 0.4:
		m.params.RiskPerTrade *= 0.9
	}

	if m.params.RiskPerTrade < m.params.MinRiskPerTrade {
		m.params.RiskPerTrade = m.params.MinRiskPerTrade
	}

	if m.params.RiskPerTrade > m.params.MaxRiskPerTrade {
		m.params.RiskPerTrade = m.params.MaxRiskPerTrade
	}
}

// CalculateTrailingStop ratchets the position's trailing stop. The highest
// seen price is updated from currentPrice and the stop trails it by
// TrailingStopPercent. Trailing arms only once the position is in profit,
// and the armed stop is floored at the entry price so it never trails back
// below breakeven. The returned stop never moves down; callers get the
// current stop back while trailing is unarmed or the candidate is lower.
func (m *Manager) CalculateTrailingStop(position *types.Position, currentPrice float64) float64 {
	if currentPrice > position.HighestPrice {
		position.HighestPrice = currentPrice
	}

	if position.HighestPrice <= position.EntryPrice {
		return position.StopLoss
	}

	percent := position.TrailingStopPercent
	if percent == 0 {
		percent = m.params.TrailingStopPercent
	}

	stop := position.HighestPrice * (1 - percent)
	if stop < position.EntryPrice {
		stop = position.EntryPrice
	}

	if stop < position.StopLoss {
		return position.StopLoss
	}

	return stop
}
