// Package execution implements order execution against a simulated
// portfolio: slippage and fee models, fill validation and the append-only
// trade log.
package execution

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantfox/btcsim/internal/logger"
	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// ExecutionStatus is the outcome class of an order.
type ExecutionStatus string

const (
	ExecutionStatusFilled   ExecutionStatus = "filled"
	ExecutionStatusRejected ExecutionStatus = "rejected"
)

// RejectReason explains a rejected order. Rejections are expected business
// outcomes, not errors: the simulation continues past them.
type RejectReason string

const (
	RejectReasonInsufficientFunds    RejectReason = "insufficient_funds"
	RejectReasonInsufficientHoldings RejectReason = "insufficient_holdings"
)

// Config configures the order executor.
type Config struct {
	Fee      FeeConfig      `yaml:"fee" json:"fee"`
	Slippage SlippageConfig `yaml:"slippage" json:"slippage"`
	// Seed seeds the executor's random source so random slippage is
	// reproducible. Zero selects a fixed default seed.
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultConfig returns percentage fees with fixed slippage.
func DefaultConfig() Config {
	return Config{
		Fee:      DefaultFeeConfig(),
		Slippage: DefaultSlippageConfig(),
	}
}

// OrderRequest asks the executor to trade at the given target price.
type OrderRequest struct {
	Action types.TradeAction
	Amount float64
	// Price is the target price; the slippage model shifts it to the
	// fill price.
	Price    float64
	Time     time.Time
	Strategy string
}

// ExecutionResult reports how an order resolved. Rejected orders carry the
// reason plus the required and available quantities; filled orders carry
// the trade record.
type ExecutionResult struct {
	Status    ExecutionStatus
	Reason    RejectReason
	Message   string
	Required  float64
	Available float64
	Trade     optional.Option[types.Trade]
}

// Filled reports whether the order executed.
func (r ExecutionResult) Filled() bool {
	return r.Status == ExecutionStatusFilled
}

// OrderExecutor fills orders against the portfolio, applying slippage and
// fees and keeping an append-only trade log. All portfolio mutation in the
// simulator goes through here; validation happens before any mutation so a
// rejected order leaves the portfolio untouched.
type OrderExecutor struct {
	portfolio *Portfolio
	feeModel  FeeModel
	slippage  SlippageModel
	log       *logger.Logger

	trades []types.Trade
}

// NewOrderExecutor builds an executor over the given portfolio. Unknown
// fee or slippage model names fail here.
func NewOrderExecutor(config Config, portfolio *Portfolio, log *logger.Logger) (*OrderExecutor, error) {
	feeModel, err := GetFeeModel(config.Fee)
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = 1
	}

	rng := rand.New(rand.NewSource(seed))

	slippage, err := GetSlippageModel(config.Slippage, rng)
	if err != nil {
		return nil, err
	}

	return &OrderExecutor{
		portfolio: portfolio,
		feeModel:  feeModel,
		slippage:  slippage,
		log:       log,
	}, nil
}

// Portfolio returns the portfolio the executor trades against.
func (e *OrderExecutor) Portfolio() *Portfolio {
	return e.portfolio
}

// Trades returns the append-only log of executed fills.
func (e *OrderExecutor) Trades() []types.Trade {
	return e.trades
}

// Reset clears the trade log and restores the portfolio.
func (e *OrderExecutor) Reset() {
	e.trades = nil
	e.portfolio.Reset()
}

// ExecuteOrder fills or rejects the order. Errors are reserved for
// malformed requests; affordability failures come back as rejected results.
func (e *OrderExecutor) ExecuteOrder(req OrderRequest) (ExecutionResult, error) {
	if req.Amount <= 0 {
		return ExecutionResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "order amount must be positive, got %f", req.Amount)
	}

	if req.Price <= 0 {
		return ExecutionResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "order price must be positive, got %f", req.Price)
	}

	switch req.Action {
	case types.TradeActionBuy:
		return e.executeBuy(req), nil
	case types.TradeActionSell:
		return e.executeSell(req), nil
	default:
		return ExecutionResult{}, errors.Newf(errors.ErrCodeUnknownAction, "unknown order action %q", req.Action)
	}
}

func (e *OrderExecutor) executeBuy(req OrderRequest) ExecutionResult {
	executionPrice := e.slippage.Apply(req.Price, types.TradeActionBuy)
	value := req.Amount * executionPrice
	fee := e.feeModel.Calculate(value)
	totalCost := value + fee

	if totalCost > e.portfolio.Balance() {
		e.log.Debug("buy order rejected",
			zap.Float64("required", totalCost),
			zap.Float64("available", e.portfolio.Balance()),
		)

		return ExecutionResult{
			Status:    ExecutionStatusRejected,
			Reason:    RejectReasonInsufficientFunds,
			Message:   "balance cannot cover order cost plus fee",
			Required:  totalCost,
			Available: e.portfolio.Balance(),
		}
	}

	e.portfolio.applyBuy(totalCost, req.Amount)

	trade := e.recordTrade(req, executionPrice, value, fee)

	return ExecutionResult{
		Status: ExecutionStatusFilled,
		Trade:  optional.Some(trade),
	}
}

func (e *OrderExecutor) executeSell(req OrderRequest) ExecutionResult {
	if req.Amount > e.portfolio.AssetAmount() {
		e.log.Debug("sell order rejected",
			zap.Float64("required", req.Amount),
			zap.Float64("available", e.portfolio.AssetAmount()),
		)

		return ExecutionResult{
			Status:    ExecutionStatusRejected,
			Reason:    RejectReasonInsufficientHoldings,
			Message:   "holding cannot cover order amount",
			Required:  req.Amount,
			Available: e.portfolio.AssetAmount(),
		}
	}

	executionPrice := e.slippage.Apply(req.Price, types.TradeActionSell)
	value := req.Amount * executionPrice
	fee := e.feeModel.Calculate(value)
	netProceeds := value - fee

	e.portfolio.applySell(netProceeds, req.Amount)

	trade := e.recordTrade(req, executionPrice, value, fee)

	return ExecutionResult{
		Status: ExecutionStatusFilled,
		Trade:  optional.Some(trade),
	}
}

func (e *OrderExecutor) recordTrade(req OrderRequest, executionPrice, value, fee float64) types.Trade {
	slippageAmount := executionPrice - req.Price
	if slippageAmount < 0 {
		slippageAmount = -slippageAmount
	}

	trade := types.Trade{
		ID:             uuid.New().String(),
		Action:         req.Action,
		Amount:         req.Amount,
		TargetPrice:    req.Price,
		ExecutionPrice: executionPrice,
		Value:          value,
		Fee:            fee,
		Slippage:       slippageAmount * req.Amount,
		SlippagePct:    slippageAmount / req.Price,
		Time:           req.Time,
		Strategy:       req.Strategy,
		BalanceAfter:   e.portfolio.Balance(),
		AssetAfter:     e.portfolio.AssetAmount(),
	}

	e.trades = append(e.trades, trade)

	e.log.Debug("order filled",
		zap.String("action", string(req.Action)),
		zap.Float64("amount", req.Amount),
		zap.Float64("execution_price", executionPrice),
		zap.Float64("fee", fee),
	)

	return trade
}
