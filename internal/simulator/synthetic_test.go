package simulator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantfox/btcsim/internal/types"
)

type SyntheticTestSuite struct {
	suite.Suite
}

func TestSyntheticSuite(t *testing.T) {
	suite.Run(t, new(SyntheticTestSuite))
}

func trendingBars(n int) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = types.Bar{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 100,
		}
	}

	return bars
}

func (s *SyntheticTestSuite) TestSMASignalAppearsAfterSlowWindow() {
	out := SynthesizeColumns(trendingBars(60))

	_, ok := out[30].Indicator(types.ColumnSMASignal)
	s.Assert().False(ok, "no SMA signal before the slow window fills")

	value, ok := out[55].Indicator(types.ColumnSMASignal)
	s.Require().True(ok)
	// Rising prices put the fast SMA above the slow one.
	s.Assert().InDelta(0.5, value, 1e-9)
}

func (s *SyntheticTestSuite) TestRSIColumnsFabricated() {
	out := SynthesizeColumns(trendingBars(60))

	rsi, ok := out[40].Indicator(types.ColumnRSI14)
	s.Require().True(ok)
	// Monotonic gains drive RSI to the top of its range.
	s.Assert().InDelta(100, rsi, 1e-9)

	sig, ok := out[40].Indicator(types.ColumnRSISignal)
	s.Require().True(ok)
	s.Assert().InDelta(-0.7, sig, 1e-9)
}

func (s *SyntheticTestSuite) TestPredictionsFabricated() {
	out := SynthesizeColumns(trendingBars(10))

	s.Assert().True(out[2].Prediction.IsNone(), "no lookback yet")

	prediction, err := out[5].Prediction.Take()
	s.Require().NoError(err)
	s.Assert().Equal(1, prediction.Direction)

	// 3 bars of +1 from 102: confidence = min(3/102*10, 1)
	s.Assert().InDelta(math.Min(3.0/102*10, 1), prediction.Confidence, 1e-9)
}

func (s *SyntheticTestSuite) TestExistingColumnsUntouched() {
	bars := trendingBars(60)
	bars[55] = bars[55].WithIndicator(types.ColumnSMASignal, -0.5)

	out := SynthesizeColumns(bars)

	value, ok := out[55].Indicator(types.ColumnSMASignal)
	s.Require().True(ok)
	s.Assert().InDelta(-0.5, value, 1e-9)
}

func (s *SyntheticTestSuite) TestDiagnostics() {
	bars := trendingBars(24)
	bars[3] = bars[3].WithIndicator(types.ColumnRSI14, 55)

	diag := DiagnoseBars(bars)

	s.Assert().Equal(24, diag.RowCount)
	s.Assert().Equal(bars[0].Time, diag.StartTime)
	s.Assert().Equal(bars[23].Time, diag.EndTime)
	s.Assert().Equal(time.Hour, diag.TypicalInterval)
	s.Assert().Equal(1, diag.IndicatorCoverage[types.ColumnRSI14])
	s.Assert().Zero(diag.PredictionCount)
}
