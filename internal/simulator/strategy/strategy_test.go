package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfox/btcsim/internal/types"
)

type StrategyTestSuite struct {
	suite.Suite

	ts   time.Time
	view PortfolioView
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (s *StrategyTestSuite) SetupTest() {
	s.ts = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.view = PortfolioView{Balance: 10_000, AssetAmount: 2, TotalValue: 10_200}
}

func buySignals(value float64) []types.Signal {
	return []types.Signal{types.NewSignal(value, 0.3, "test", time.Time{})}
}

func flatBars(n int, close float64) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = types.Bar{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  close,
			High:  close + 1,
			Low:   close - 1,
			Close: close,
		}
	}

	return bars
}

func (s *StrategyTestSuite) TestTrendFollowingBuysOnStrongSignal() {
	strat, err := NewTrendFollowingStrategy(0, 0)
	s.Require().NoError(err)

	bar := types.Bar{Close: 100}

	decision, err := strat.GenerateDecision(buySignals(0.8), bar, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionBuy, got.Action)
	// 30% of 10k at price 100
	s.Assert().InDelta(30, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestTrendFollowingHoldSignalsDoNotDilute() {
	strat, err := NewTrendFollowingStrategy(0, 0)
	s.Require().NoError(err)

	// One strong buy alongside two zero-strength holds: the weighted
	// average stays at 0.8, well above the trigger.
	signals := []types.Signal{
		types.NewSignal(0.8, 0.3, "technical", time.Time{}),
		types.HoldSignal("model_prediction", time.Time{}),
		types.HoldSignal("hybrid", time.Time{}),
	}

	decision, err := strat.GenerateDecision(signals, types.Bar{Close: 100}, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionBuy, got.Action)
	s.Assert().InDelta(30, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestTrendFollowingCooldown() {
	strat, err := NewTrendFollowingStrategy(0, 3)
	s.Require().NoError(err)

	bar := types.Bar{Close: 100}

	first, err := strat.GenerateDecision(buySignals(0.8), bar, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(first.IsSome())

	// The next three bars are inside the cooldown window.
	for i := 0; i < 3; i++ {
		blocked, err := strat.GenerateDecision(buySignals(0.8), bar, nil, s.view, s.ts)
		s.Require().NoError(err)
		s.Assert().True(blocked.IsNone(), "bar %d should be blocked by cooldown", i+1)
	}

	after, err := strat.GenerateDecision(buySignals(0.8), bar, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(after.IsSome())
}

func (s *StrategyTestSuite) TestTrendFollowingSellsHalf() {
	strat, err := NewTrendFollowingStrategy(0, 0)
	s.Require().NoError(err)

	decision, err := strat.GenerateDecision(buySignals(-0.8), types.Bar{Close: 100}, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionSell, got.Action)
	s.Assert().InDelta(1, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestTrendFollowingHoldsOnWeakSignal() {
	strat, err := NewTrendFollowingStrategy(0, 0)
	s.Require().NoError(err)

	decision, err := strat.GenerateDecision(buySignals(0.2), types.Bar{Close: 100}, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(decision.IsNone())
}

func (s *StrategyTestSuite) TestMeanReversionSellsAtHighZScore() {
	strat, err := NewMeanReversionStrategy(4, 2.0)
	s.Require().NoError(err)

	bar := types.Bar{Close: 100}.WithIndicator(types.ColumnZScore, 2.5)

	decision, err := strat.GenerateDecision(nil, bar, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionSell, got.Action)
	// Sells the entire holding.
	s.Assert().InDelta(s.view.AssetAmount, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestMeanReversionBuysAtLowZScore() {
	strat, err := NewMeanReversionStrategy(4, 2.0)
	s.Require().NoError(err)

	bar := types.Bar{Close: 100}.WithIndicator(types.ColumnZScore, -2.5)

	decision, err := strat.GenerateDecision(nil, bar, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionBuy, got.Action)
	// 20% of 10k at price 100
	s.Assert().InDelta(20, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestMeanReversionComputesZScoreFromWindow() {
	strat, err := NewMeanReversionStrategy(10, 2.0)
	s.Require().NoError(err)

	history := flatBars(10, 100)
	spike := types.Bar{Time: s.ts, Close: 100}

	// Zero variance window yields zero z-score, so no trade.
	decision, err := strat.GenerateDecision(nil, spike, history, s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(decision.IsNone())
}

func (s *StrategyTestSuite) TestMeanReversionInsufficientHistoryHolds() {
	strat, err := NewMeanReversionStrategy(20, 2.0)
	s.Require().NoError(err)

	decision, err := strat.GenerateDecision(nil, types.Bar{Close: 100}, flatBars(5, 100), s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(decision.IsNone())
}

func (s *StrategyTestSuite) TestBreakoutBuysAboveRollingHigh() {
	strat, err := NewBreakoutStrategy(5, 1.0, 1)
	s.Require().NoError(err)

	history := flatBars(10, 100)
	breakout := types.Bar{Time: s.ts, Close: 110}.WithIndicator(types.ColumnATR14, 2)
	history = append(history, breakout)

	decision, err := strat.GenerateDecision(nil, breakout, history, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionBuy, got.Action)
	// 25% of 10k at price 110
	s.Assert().InDelta(10_000*0.25/110, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestBreakoutSellsBelowRollingLow() {
	strat, err := NewBreakoutStrategy(5, 1.0, 1)
	s.Require().NoError(err)

	history := flatBars(10, 100)
	breakdown := types.Bar{Time: s.ts, Close: 90}.WithIndicator(types.ColumnATR14, 2)
	history = append(history, breakdown)

	decision, err := strat.GenerateDecision(nil, breakdown, history, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionSell, got.Action)
	s.Assert().InDelta(1, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestBreakoutHoldsInsideRange() {
	strat, err := NewBreakoutStrategy(5, 1.0, 1)
	s.Require().NoError(err)

	history := flatBars(10, 100)
	inside := types.Bar{Time: s.ts, Close: 101}.WithIndicator(types.ColumnATR14, 2)
	history = append(history, inside)

	decision, err := strat.GenerateDecision(nil, inside, history, s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(decision.IsNone())
}

func predictedBar(direction int, confidence float64) types.Bar {
	return types.Bar{
		Close:      100,
		Prediction: optional.Some(types.Prediction{Direction: direction, Confidence: confidence}),
	}
}

func (s *StrategyTestSuite) TestMachineLearningScalesBuyWithConfidence() {
	strat, err := NewMachineLearningStrategy(0.65)
	s.Require().NoError(err)

	decision, err := strat.GenerateDecision(nil, predictedBar(1, 0.9), nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionBuy, got.Action)

	// fraction = 0.1 + (0.9-0.65)*0.5 = 0.225 of 10k at price 100
	s.Assert().InDelta(22.5, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestMachineLearningCapsSellFraction() {
	strat, err := NewMachineLearningStrategy(0.65)
	s.Require().NoError(err)

	decision, err := strat.GenerateDecision(nil, predictedBar(-1, 1), nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Require().True(decision.IsSome())

	got, _ := decision.Take()
	s.Assert().Equal(types.TradeActionSell, got.Action)

	// fraction = min(0.3 + 0.35*0.8, 0.7) = 0.58 of 2 held
	s.Assert().InDelta(1.16, got.Amount, 1e-9)
}

func (s *StrategyTestSuite) TestMachineLearningHoldsBelowConfidence() {
	strat, err := NewMachineLearningStrategy(0.65)
	s.Require().NoError(err)

	decision, err := strat.GenerateDecision(nil, predictedBar(1, 0.5), nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(decision.IsNone())
}

func (s *StrategyTestSuite) TestMachineLearningHoldsWithoutPrediction() {
	strat, err := NewMachineLearningStrategy(0.65)
	s.Require().NoError(err)

	// A strong fallback signal carrying the model-prediction source must
	// not trade when the bar itself has no prediction.
	signals := []types.Signal{{
		Value:    0.7,
		Type:     types.SignalTypeBuy,
		Strength: 0.7,
		Source:   "model_prediction",
	}}

	decision, err := strat.GenerateDecision(signals, types.Bar{Close: 100}, nil, s.view, s.ts)
	s.Require().NoError(err)
	s.Assert().True(decision.IsNone())
}
