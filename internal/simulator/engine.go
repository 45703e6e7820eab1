// Package simulator contains the event-driven trading simulation engine.
// The engine replays a validated bar series through signal generators,
// strategies, risk management and the order executor, tracking positions
// and portfolio value bar by bar.
package simulator

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantfox/btcsim/internal/indicator"
	"github.com/quantfox/btcsim/internal/logger"
	"github.com/quantfox/btcsim/internal/simulator/execution"
	"github.com/quantfox/btcsim/internal/simulator/risk"
	"github.com/quantfox/btcsim/internal/simulator/signal"
	"github.com/quantfox/btcsim/internal/simulator/strategy"
	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// EngineState is the lifecycle state of the engine.
type EngineState string

const (
	StateIdle     EngineState = "idle"
	StateReady    EngineState = "ready"
	StateRunning  EngineState = "running"
	StateFinished EngineState = "finished"
	StateError    EngineState = "error"
)

// StepStatus reports whether a step processed a bar or hit the end of data.
type StepStatus string

const (
	StepStatusActive   StepStatus = "active"
	StepStatusFinished StepStatus = "finished"
)

const atrPeriod = 14

// PortfolioValuePoint is one sample of the portfolio value series.
type PortfolioValuePoint struct {
	Time        time.Time `yaml:"time" json:"time"`
	Value       float64   `yaml:"value" json:"value"`
	Balance     float64   `yaml:"balance" json:"balance"`
	AssetAmount float64   `yaml:"asset_amount" json:"asset_amount"`
	Price       float64   `yaml:"price" json:"price"`
}

// StepResult reports everything that happened in one engine step.
type StepResult struct {
	Status         StepStatus
	Time           time.Time
	Price          float64
	Signals        []types.Signal
	Decisions      []types.Decision
	Closed         []types.ClosedTrade
	PortfolioValue float64
}

// RunResult is the outcome of a full simulation run. On cancellation the
// partial result is returned alongside the error.
type RunResult struct {
	Steps            int
	Metrics          types.PerformanceMetrics
	PortfolioHistory []PortfolioValuePoint
	Trades           []types.Trade
	ClosedTrades     []types.ClosedTrade
	FinalState       EngineState
}

// OnStepCallback observes each completed step during RunSimulation.
type OnStepCallback func(step StepResult)

// Engine is the event-driven simulation engine. It is not safe for
// concurrent use; one engine drives one run at a time.
type Engine struct {
	config Config
	log    *logger.Logger

	state  EngineState
	bars   []types.Bar
	cursor int

	portfolio   *execution.Portfolio
	executor    *execution.OrderExecutor
	riskManager *risk.Manager
	adjuster    *risk.DynamicAdjuster
	stats       *execution.TradingStatistics

	// positions maps symbol to its open position. Positions transition
	// open → updated → closed; closes always go through closePosition.
	positions map[string]*types.Position
	closed    []types.ClosedTrade
	history   []PortfolioValuePoint
}

// NewEngine validates the configuration and builds an idle engine. Fee,
// slippage and risk misconfiguration fail here, not mid-run.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	portfolio := execution.NewPortfolio(config.InitialBalance)

	executor, err := execution.NewOrderExecutor(config.Executor, portfolio, log)
	if err != nil {
		return nil, err
	}

	riskManager, err := risk.NewManager(config.Risk)
	if err != nil {
		return nil, err
	}

	adjuster, err := risk.NewDynamicAdjuster(config.Adjuster)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:      config,
		log:         log,
		state:       StateIdle,
		portfolio:   portfolio,
		executor:    executor,
		riskManager: riskManager,
		adjuster:    adjuster,
		stats:       execution.NewTradingStatistics(),
		positions:   make(map[string]*types.Position),
	}, nil
}

// State returns the engine lifecycle state.
func (e *Engine) State() EngineState {
	return e.state
}

// Portfolio returns the engine's portfolio for read access.
func (e *Engine) Portfolio() *execution.Portfolio {
	return e.portfolio
}

// Positions returns a snapshot of the open positions.
func (e *Engine) Positions() map[string]types.Position {
	snapshot := make(map[string]types.Position, len(e.positions))
	for symbol, position := range e.positions {
		snapshot[symbol] = *position
	}

	return snapshot
}

// LoadData validates and installs a bar series, moving the engine to
// ready. Empty, unordered or duplicated data is rejected and the engine
// keeps its previous data and state. In synthetic mode, missing indicator
// and prediction columns are fabricated at load time.
func (e *Engine) LoadData(bars []types.Bar) error {
	if e.state == StateRunning {
		return errors.New(errors.ErrCodeInvalidState, "cannot load data while a run is in progress")
	}

	if err := types.ValidateBars(bars); err != nil {
		return err
	}

	installed := make([]types.Bar, len(bars))
	copy(installed, bars)

	if e.config.SyntheticMode {
		installed = SynthesizeColumns(installed)
	}

	diag := DiagnoseBars(installed)
	e.log.Info("data loaded",
		zap.Int("rows", diag.RowCount),
		zap.Time("start", diag.StartTime),
		zap.Time("end", diag.EndTime),
		zap.Duration("typical_interval", diag.TypicalInterval),
		zap.Int("prediction_count", diag.PredictionCount),
		zap.Bool("synthetic_mode", e.config.SyntheticMode),
	)

	e.bars = installed

	return e.resetRun()
}

// Reset restores the engine to the start of the loaded data with a fresh
// portfolio.
func (e *Engine) Reset() error {
	if len(e.bars) == 0 {
		return errors.New(errors.ErrCodeNoDataLoaded, "no data loaded")
	}

	return e.resetRun()
}

func (e *Engine) resetRun() error {
	e.executor.Reset()
	e.stats.Reset()
	e.adjuster.Reset()
	e.positions = make(map[string]*types.Position)
	e.closed = nil
	e.history = nil
	e.cursor = 0
	e.state = StateReady

	return nil
}

// Step advances the simulation by one bar: generate signals, check open
// positions for protective exits, collect strategy decisions and execute
// them, then sample the portfolio value. Individual generator and strategy
// failures are logged and skipped; the step carries on with the rest.
//
// Calling Step once the data is exhausted returns a finished result.
func (e *Engine) Step(generators []signal.Generator, strategies []strategy.Strategy) (StepResult, error) {
	switch e.state {
	case StateReady, StateRunning:
	case StateFinished:
		return StepResult{Status: StepStatusFinished}, nil
	default:
		return StepResult{}, errors.Newf(errors.ErrCodeInvalidState, "cannot step in state %s", e.state)
	}

	// Advance to the next bar strictly after the cursor.
	if e.cursor+1 >= len(e.bars) {
		e.state = StateFinished

		return StepResult{Status: StepStatusFinished}, nil
	}

	e.state = StateRunning
	e.cursor++

	bar := e.bars[e.cursor]
	ts := bar.Time
	window := e.window()

	signals := e.generateSignals(generators, bar, window, ts)

	// Protective exits resolve before any new decision is acted on.
	closedNow := e.checkPositions(bar, ts)

	decisions := e.collectDecisions(strategies, signals, bar, window, ts)

	for _, decision := range decisions {
		if closed := e.executeDecision(decision, bar, signals, window, ts); closed != nil {
			closedNow = append(closedNow, *closed)
		}
	}

	point := PortfolioValuePoint{
		Time:        ts,
		Value:       e.portfolio.TotalValue(bar.Close),
		Balance:     e.portfolio.Balance(),
		AssetAmount: e.portfolio.AssetAmount(),
		Price:       bar.Close,
	}
	e.history = append(e.history, point)

	status := StepStatusActive
	if e.cursor == len(e.bars)-1 {
		e.state = StateFinished
		status = StepStatusFinished
	}

	return StepResult{
		Status:         status,
		Time:           ts,
		Price:          bar.Close,
		Signals:        signals,
		Decisions:      decisions,
		Closed:         closedNow,
		PortfolioValue: point.Value,
	}, nil
}

// RunSimulation resets the engine and steps through the loaded data until
// it is exhausted, the context is cancelled or the step budget runs out.
// The optional callback observes every completed step.
func (e *Engine) RunSimulation(ctx context.Context, generators []signal.Generator, strategies []strategy.Strategy, onStep optional.Option[OnStepCallback]) (RunResult, error) {
	if len(e.bars) == 0 {
		return RunResult{}, errors.New(errors.ErrCodeNoDataLoaded, "no data loaded")
	}

	if err := e.resetRun(); err != nil {
		return RunResult{}, err
	}

	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			e.state = StateError

			return e.buildResult(steps), errors.Wrap(errors.ErrCodeRunCancelled, "simulation cancelled", err)
		}

		if e.config.MaxSteps > 0 && steps >= e.config.MaxSteps {
			e.log.Info("step budget exhausted", zap.Int("max_steps", e.config.MaxSteps))
			e.state = StateFinished

			break
		}

		step, err := e.Step(generators, strategies)
		if err != nil {
			e.state = StateError

			return e.buildResult(steps), errors.Wrap(errors.ErrCodeSimulationFailed, "simulation step failed", err)
		}

		if step.Status == StepStatusFinished && step.Time.IsZero() {
			break
		}

		steps++

		if callback, cbErr := onStep.Take(); cbErr == nil {
			callback(step)
		}

		if step.Status == StepStatusFinished {
			break
		}
	}

	e.state = StateFinished

	return e.buildResult(steps), nil
}

// window returns the trailing bar window ending at the cursor, capped at
// the configured lookback.
func (e *Engine) window() []types.Bar {
	start := e.cursor + 1 - e.config.LookbackWindow
	if start < 0 {
		start = 0
	}

	return e.bars[start : e.cursor+1]
}

func (e *Engine) generateSignals(generators []signal.Generator, bar types.Bar, window []types.Bar, ts time.Time) []types.Signal {
	signals := make([]types.Signal, 0, len(generators))

	for _, generator := range generators {
		sig, err := generator.GenerateSignal(bar, window, ts)
		if err != nil {
			e.log.Warn("signal generator failed",
				zap.String("generator", generator.Name()),
				zap.Time("bar", ts),
				zap.Error(err),
			)

			continue
		}

		signals = append(signals, sig)
	}

	return signals
}

// checkPositions applies trailing-stop updates and protective exits to
// every open position. Stop-loss has priority over take-profit when both
// levels are touched within one bar.
func (e *Engine) checkPositions(bar types.Bar, ts time.Time) []types.ClosedTrade {
	var closedNow []types.ClosedTrade

	for symbol, position := range e.positions {
		if position.TrailingStopEnabled {
			if stop := e.riskManager.CalculateTrailingStop(position, bar.Close); stop > position.StopLoss {
				position.StopLoss = stop
			}
		}

		var (
			exitPrice float64
			reason    types.ExitReason
		)

		switch {
		case position.StopLoss > 0 && bar.Low <= position.StopLoss:
			exitPrice = position.StopLoss
			reason = types.ExitReasonStopLoss
		case position.TakeProfit > 0 && bar.High >= position.TakeProfit:
			exitPrice = position.TakeProfit
			reason = types.ExitReasonTakeProfit
		default:
			continue
		}

		closed, ok := e.closePosition(position, position.Amount, exitPrice, reason, ts)
		if !ok {
			continue
		}

		delete(e.positions, symbol)
		closedNow = append(closedNow, closed)
	}

	return closedNow
}

func (e *Engine) collectDecisions(strategies []strategy.Strategy, signals []types.Signal, bar types.Bar, window []types.Bar, ts time.Time) []types.Decision {
	view := strategy.PortfolioView{
		Balance:     e.portfolio.Balance(),
		AssetAmount: e.portfolio.AssetAmount(),
		TotalValue:  e.portfolio.TotalValue(bar.Close),
	}

	decisions := make([]types.Decision, 0, len(strategies))

	for _, strat := range strategies {
		maybe, err := strat.GenerateDecision(signals, bar, window, view, ts)
		if err != nil {
			e.log.Warn("strategy failed",
				zap.String("strategy", strat.Name()),
				zap.Time("bar", ts),
				zap.Error(err),
			)

			continue
		}

		decision, err := maybe.Take()
		if err != nil {
			continue
		}

		if err := decision.Validate(); err != nil {
			e.log.Warn("strategy produced invalid decision",
				zap.String("strategy", strat.Name()),
				zap.String("action", string(decision.Action)),
				zap.Error(err),
			)

			continue
		}

		decisions = append(decisions, decision)
	}

	return decisions
}

// executeDecision routes one validated decision through the executor.
// Returns the closed trade when a sell fully or partially exits the open
// position.
func (e *Engine) executeDecision(decision types.Decision, bar types.Bar, signals []types.Signal, window []types.Bar, ts time.Time) *types.ClosedTrade {
	if decision.Action == types.TradeActionHold {
		return nil
	}

	price := decision.Price.TakeOr(bar.Close)

	switch decision.Action {
	case types.TradeActionBuy:
		e.executeBuy(decision, price, signals, window, ts)

		return nil
	case types.TradeActionSell:
		return e.executeSell(decision, price, ts)
	default:
		e.log.Warn("rejected unknown decision action",
			zap.String("strategy", decision.Strategy),
			zap.String("action", string(decision.Action)),
		)

		return nil
	}
}

func (e *Engine) executeBuy(decision types.Decision, price float64, signals []types.Signal, window []types.Bar, ts time.Time) {
	atr := e.barATR(window)

	amount := decision.Amount
	if amount == 0 {
		// Risk-managed sizing, scaled by the adaptive multiplier. The
		// sizing already caps at 95% of the balance; the multiplier can
		// push past that, so cap again.
		strength := strongestBuySignal(signals)
		amount = e.riskManager.CalculatePositionSize(e.portfolio.Balance(), price, strength, atr) * e.adjuster.Multiplier()

		if maxAmount := e.portfolio.Balance() * 0.95 / price; amount > maxAmount {
			amount = maxAmount
		}
	}

	if amount <= 0 {
		return
	}

	result, err := e.executor.ExecuteOrder(execution.OrderRequest{
		Action:   types.TradeActionBuy,
		Amount:   amount,
		Price:    price,
		Time:     ts,
		Strategy: decision.Strategy,
	})
	if err != nil {
		e.log.Warn("buy order failed", zap.String("strategy", decision.Strategy), zap.Error(err))

		return
	}

	if !result.Filled() {
		e.log.Info("buy order rejected",
			zap.String("strategy", decision.Strategy),
			zap.String("reason", string(result.Reason)),
			zap.Float64("required", result.Required),
			zap.Float64("available", result.Available),
		)

		return
	}

	trade, _ := result.Trade.Take()
	e.openOrGrowPosition(decision, trade, atr)
}

// openOrGrowPosition opens a position for the fill, or averages the fill
// into the existing one. Protective levels come from the decision's
// overrides when present, otherwise from the risk manager.
func (e *Engine) openOrGrowPosition(decision types.Decision, trade types.Trade, atr optional.Option[float64]) {
	existing, ok := e.positions[e.config.Symbol]
	if ok {
		total := existing.Amount + trade.Amount
		existing.EntryPrice = (existing.EntryPrice*existing.Amount + trade.ExecutionPrice*trade.Amount) / total
		existing.Amount = total
		existing.EntryFee += trade.Fee
		existing.EntrySlippage += trade.Slippage

		if trade.ExecutionPrice > existing.HighestPrice {
			existing.HighestPrice = trade.ExecutionPrice
		}

		return
	}

	stopLoss, takeProfit := e.riskManager.CalculateStopLossTakeProfit(trade.ExecutionPrice, atr)

	if override, err := decision.StopLoss.Take(); err == nil {
		stopLoss = override
	}

	if override, err := decision.TakeProfit.Take(); err == nil {
		takeProfit = override
	}

	position := types.NewPosition(e.config.Symbol, trade.ExecutionPrice, trade.Amount, stopLoss, takeProfit, trade.Fee, trade.Time)
	position.EntrySlippage = trade.Slippage
	position.TrailingStopEnabled = e.config.TrailingStopEnabled
	position.TrailingStopPercent = e.config.Risk.TrailingStopPercent

	e.positions[e.config.Symbol] = position
}

func (e *Engine) executeSell(decision types.Decision, price float64, ts time.Time) *types.ClosedTrade {
	position, hasPosition := e.positions[e.config.Symbol]

	amount := decision.Amount
	if amount == 0 {
		if hasPosition {
			amount = position.Amount
		} else {
			amount = e.portfolio.AssetAmount()
		}
	}

	if held := e.portfolio.AssetAmount(); amount > held {
		amount = held
	}

	if amount <= 0 {
		return nil
	}

	if !hasPosition {
		result, err := e.executor.ExecuteOrder(execution.OrderRequest{
			Action:   types.TradeActionSell,
			Amount:   amount,
			Price:    price,
			Time:     ts,
			Strategy: decision.Strategy,
		})
		if err != nil || !result.Filled() {
			e.logSellFailure(decision.Strategy, result, err)
		}

		return nil
	}

	closed, ok := e.closePosition(position, amount, price, types.ExitReasonStrategy, ts)
	if !ok {
		return nil
	}

	if position.Amount <= 0 {
		delete(e.positions, e.config.Symbol)
	}

	return &closed
}

// closePosition sells the given amount out of the position and records the
// completed round trip with statistics and the risk adjuster. Partial
// exits prorate the entry fee and entry slippage.
func (e *Engine) closePosition(position *types.Position, amount, price float64, reason types.ExitReason, ts time.Time) (types.ClosedTrade, bool) {
	if amount > position.Amount {
		amount = position.Amount
	}

	result, err := e.executor.ExecuteOrder(execution.OrderRequest{
		Action: types.TradeActionSell,
		Amount: amount,
		Price:  price,
		Time:   ts,
	})
	if err != nil || !result.Filled() {
		e.logSellFailure(string(reason), result, err)

		return types.ClosedTrade{}, false
	}

	trade, _ := result.Trade.Take()

	fraction := amount / position.Amount
	entryFee := position.EntryFee * fraction
	entrySlippage := position.EntrySlippage * fraction

	slice := *position
	slice.Amount = amount
	slice.EntryFee = entryFee
	slice.EntrySlippage = entrySlippage

	closed := types.NewClosedTrade(&slice, trade, reason)

	position.Amount -= amount
	position.EntryFee -= entryFee
	position.EntrySlippage -= entrySlippage

	e.closed = append(e.closed, closed)
	e.stats.AddTrade(closed)
	e.adjuster.RecordTrade(closed)
	e.riskManager.UpdateRiskParameters(e.stats.CalculateMetrics())

	e.log.Info("position closed",
		zap.String("reason", string(reason)),
		zap.Float64("amount", amount),
		zap.Float64("entry_price", closed.EntryPrice),
		zap.Float64("exit_price", closed.ExitPrice),
		zap.Float64("pnl", closed.PnL),
	)

	return closed, true
}

func (e *Engine) logSellFailure(source string, result execution.ExecutionResult, err error) {
	if err != nil {
		e.log.Warn("sell order failed", zap.String("source", source), zap.Error(err))

		return
	}

	e.log.Info("sell order rejected",
		zap.String("source", source),
		zap.String("reason", string(result.Reason)),
		zap.Float64("required", result.Required),
		zap.Float64("available", result.Available),
	)
}

// barATR returns the ATR for the current bar, preferring the precomputed
// column over computing it from the window.
func (e *Engine) barATR(window []types.Bar) optional.Option[float64] {
	if len(window) > 0 {
		if value, ok := window[len(window)-1].Indicator(types.ColumnATR14); ok {
			return optional.Some(value)
		}
	}

	value, err := indicator.ATR(window, atrPeriod)
	if err != nil {
		return optional.None[float64]()
	}

	return optional.Some(value)
}

func (e *Engine) buildResult(steps int) RunResult {
	metrics := e.stats.CalculateMetrics()
	e.fillRunMetrics(&metrics)

	return RunResult{
		Steps:            steps,
		Metrics:          metrics,
		PortfolioHistory: e.history,
		Trades:           e.executor.Trades(),
		ClosedTrades:     e.closed,
		FinalState:       e.state,
	}
}

// strongestBuySignal returns the highest strength among buy signals.
func strongestBuySignal(signals []types.Signal) float64 {
	var strength float64

	for _, sig := range signals {
		if sig.Type == types.SignalTypeBuy && sig.Strength > strength {
			strength = sig.Strength
		}
	}

	return strength
}
