package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func barsFromCloses(closes ...float64) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}

	return bars
}

func (s *IndicatorTestSuite) TestTrueRange() {
	bar := types.Bar{High: 110, Low: 100, Close: 105}

	s.Assert().InDelta(10, TrueRange(bar, 105), 1e-9)
	// A gap above the range extends the true range to the previous close.
	s.Assert().InDelta(20, TrueRange(bar, 90), 1e-9)
	s.Assert().InDelta(15, TrueRange(bar, 115), 1e-9)
}

func (s *IndicatorTestSuite) TestATRConstantRange() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, 20)
	for i := range bars {
		bars[i] = types.Bar{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  100,
			High:  102,
			Low:   98,
			Close: 100,
		}
	}

	atr, err := ATR(bars, 14)
	s.Require().NoError(err)
	s.Assert().InDelta(4, atr, 1e-9)
}

func (s *IndicatorTestSuite) TestATRInsufficientData() {
	_, err := ATR(barsFromCloses(100, 101), 14)

	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeInsufficientData))
}

func (s *IndicatorTestSuite) TestRSIAllGains() {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi, err := RSI(barsFromCloses(closes...), 14)
	s.Require().NoError(err)
	s.Assert().InDelta(100, rsi, 1e-9)
}

func (s *IndicatorTestSuite) TestRSIBalanced() {
	// Alternating equal gains and losses settle near 50.
	closes := []float64{100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100}

	rsi, err := RSI(barsFromCloses(closes...), 14)
	s.Require().NoError(err)
	s.Assert().InDelta(50, rsi, 1)
}

func (s *IndicatorTestSuite) TestSMA() {
	sma, err := SMA(barsFromCloses(1, 2, 3, 4, 5), 3)
	s.Require().NoError(err)
	s.Assert().InDelta(4, sma, 1e-9)
}

func (s *IndicatorTestSuite) TestSMAInvalidPeriod() {
	_, err := SMA(barsFromCloses(1, 2, 3), 0)

	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (s *IndicatorTestSuite) TestZScore() {
	// Window mean 100, population std 2 over {98,100,102} repeated.
	bars := barsFromCloses(98, 100, 102, 98, 100, 102, 98, 100, 102)

	z, err := ZScore(bars, 9, 104)
	s.Require().NoError(err)
	s.Assert().InDelta(2.449, z, 0.01)
}

func (s *IndicatorTestSuite) TestZScoreZeroVariance() {
	z, err := ZScore(barsFromCloses(100, 100, 100, 100), 4, 105)
	s.Require().NoError(err)
	s.Assert().Zero(z)
}

func (s *IndicatorTestSuite) TestStdDev() {
	s.Assert().InDelta(1.633, StdDev([]float64{98, 100, 102, 98, 100, 102}), 0.01)
	s.Assert().Zero(StdDev(nil))
}
