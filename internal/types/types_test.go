package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfox/btcsim/pkg/errors"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func barsAt(times ...time.Time) []Bar {
	bars := make([]Bar, len(times))
	for i, ts := range times {
		bars[i] = Bar{Time: ts, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1}
	}

	return bars
}

func (s *TypesTestSuite) TestValidateBarsEmpty() {
	err := ValidateBars(nil)

	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeEmptyData))
}

func (s *TypesTestSuite) TestValidateBarsUnordered() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := ValidateBars(barsAt(base, base.Add(2*time.Hour), base.Add(time.Hour)))

	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeUnorderedData))
}

func (s *TypesTestSuite) TestValidateBarsDuplicate() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := ValidateBars(barsAt(base, base.Add(time.Hour), base.Add(time.Hour)))

	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeDuplicateData))
}

func (s *TypesTestSuite) TestValidateBarsOrdered() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Assert().NoError(ValidateBars(barsAt(base, base.Add(time.Hour), base.Add(2*time.Hour))))
}

func (s *TypesTestSuite) TestWithIndicatorDoesNotMutateOriginal() {
	bar := Bar{Close: 100}
	annotated := bar.WithIndicator(ColumnRSI14, 55)

	_, ok := bar.Indicator(ColumnRSI14)
	s.Assert().False(ok)

	value, ok := annotated.Indicator(ColumnRSI14)
	s.Require().True(ok)
	s.Assert().InDelta(55, value, 1e-9)
}

func (s *TypesTestSuite) TestNewSignalThresholds() {
	ts := time.Now()

	s.Assert().Equal(SignalTypeBuy, NewSignal(0.5, 0.3, "test", ts).Type)
	s.Assert().Equal(SignalTypeSell, NewSignal(-0.5, 0.3, "test", ts).Type)
	s.Assert().Equal(SignalTypeHold, NewSignal(0.2, 0.3, "test", ts).Type)
	s.Assert().InDelta(1.0, NewSignal(1.8, 0.3, "test", ts).Strength, 1e-9)
}

func (s *TypesTestSuite) TestDecisionValidate() {
	decision := Decision{
		Action:   TradeActionBuy,
		Amount:   1.5,
		Strategy: "trend_following",
		Time:     time.Now(),
	}

	s.Assert().NoError(decision.Validate())

	decision.Action = "short"
	err := decision.Validate()

	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidDecision))
}

func (s *TypesTestSuite) TestDecisionNegativeAmountRejected() {
	decision := Decision{
		Action:   TradeActionSell,
		Amount:   -1,
		Strategy: "test",
	}

	s.Assert().Error(decision.Validate())
}

func (s *TypesTestSuite) TestClosedTradeNetPnL() {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	position := NewPosition("BTC-USD", 100, 2, 95, 110, 1.5, entry)

	exit := Trade{
		Action:         TradeActionSell,
		Amount:         2,
		ExecutionPrice: 110,
		Fee:            2.5,
		Time:           entry.Add(time.Hour),
	}

	closed := NewClosedTrade(position, exit, ExitReasonTakeProfit)

	// (110-100)*2 - 1.5 - 2.5
	s.Assert().InDelta(16, closed.PnL, 1e-9)
	s.Assert().InDelta(4, closed.Fees, 1e-9)
	s.Assert().True(closed.IsProfitable())
	s.Assert().Equal(ExitReasonTakeProfit, closed.ExitReason)
}

func (s *TypesTestSuite) TestClosedTradeSumsEntryAndExitSlippage() {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	position := NewPosition("BTC-USD", 100, 2, 95, 110, 1.5, entry)
	position.EntrySlippage = 0.8

	exit := Trade{
		Action:         TradeActionSell,
		Amount:         2,
		ExecutionPrice: 110,
		Fee:            2.5,
		Slippage:       1.2,
		Time:           entry.Add(time.Hour),
	}

	closed := NewClosedTrade(position, exit, ExitReasonStrategy)

	s.Assert().InDelta(2, closed.Slippage, 1e-9)
}

func (s *TypesTestSuite) TestUnrealizedPnL() {
	position := NewPosition("BTC-USD", 100, 3, 95, 110, 1, time.Now())

	s.Assert().InDelta(29, position.UnrealizedPnL(110), 1e-9)
	s.Assert().InDelta(-16, position.UnrealizedPnL(95), 1e-9)
}

func (s *TypesTestSuite) TestReportRoundTrip() {
	path := s.T().TempDir() + "/report.yaml"

	report := Report{
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Symbol:      "BTC-USD",
		Metrics: PerformanceMetrics{
			TotalTrades: 10,
			WinRate:     0.6,
			NetProfit:   300,
		},
		Summary: "10 trades",
	}

	s.Require().NoError(WriteReport(path, report))

	loaded, err := ReadReport(path)
	s.Require().NoError(err)
	s.Assert().Equal(report.Symbol, loaded.Symbol)
	s.Assert().Equal(report.Metrics.TotalTrades, loaded.Metrics.TotalTrades)
	s.Assert().InDelta(report.Metrics.WinRate, loaded.Metrics.WinRate, 1e-9)
}

func (s *TypesTestSuite) TestOptionalDecisionFields() {
	decision := Decision{
		Action:     TradeActionBuy,
		Amount:     1,
		Strategy:   "test",
		StopLoss:   optional.Some(95.0),
		TakeProfit: optional.None[float64](),
	}

	stop, err := decision.StopLoss.Take()
	s.Require().NoError(err)
	s.Assert().InDelta(95.0, stop, 1e-9)
	s.Assert().True(decision.TakeProfit.IsNone())
}
