package marketdata

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

type CSVTestSuite struct {
	suite.Suite
}

func TestCSVSuite(t *testing.T) {
	suite.Run(t, new(CSVTestSuite))
}

func (s *CSVTestSuite) TestReadBarsBasic() {
	input := `time,open,high,low,close,volume
2024-01-01T00:00:00Z,100,101,99,100.5,1000
2024-01-01T01:00:00Z,100.5,102,100,101.5,1200
`

	bars, err := ReadBars(strings.NewReader(input))
	s.Require().NoError(err)
	s.Require().Len(bars, 2)

	s.Assert().InDelta(100.5, bars[0].Close, 1e-9)
	s.Assert().InDelta(102, bars[1].High, 1e-9)
	s.Assert().Equal(2024, bars[0].Time.Year())
}

func (s *CSVTestSuite) TestReadBarsWithIndicatorColumns() {
	input := `time,open,high,low,close,volume,SMA_Signal,ATR_14
2024-01-01T00:00:00Z,100,101,99,100,1000,0.5,2.5
`

	bars, err := ReadBars(strings.NewReader(input))
	s.Require().NoError(err)
	s.Require().Len(bars, 1)

	sma, ok := bars[0].Indicator(types.ColumnSMASignal)
	s.Require().True(ok)
	s.Assert().InDelta(0.5, sma, 1e-9)

	atr, ok := bars[0].Indicator(types.ColumnATR14)
	s.Require().True(ok)
	s.Assert().InDelta(2.5, atr, 1e-9)
}

func (s *CSVTestSuite) TestReadBarsWithPredictions() {
	input := `time,open,high,low,close,volume,predicted_direction,prediction_confidence
2024-01-01T00:00:00Z,100,101,99,100,1000,1,0.8
2024-01-01T01:00:00Z,100,101,99,100,1000,-1,0.6
2024-01-01T02:00:00Z,100,101,99,100,1000,,
`

	bars, err := ReadBars(strings.NewReader(input))
	s.Require().NoError(err)
	s.Require().Len(bars, 3)

	first, takeErr := bars[0].Prediction.Take()
	s.Require().NoError(takeErr)
	s.Assert().Equal(1, first.Direction)
	s.Assert().InDelta(0.8, first.Confidence, 1e-9)

	second, takeErr := bars[1].Prediction.Take()
	s.Require().NoError(takeErr)
	s.Assert().Equal(-1, second.Direction)

	s.Assert().True(bars[2].Prediction.IsNone())
}

func (s *CSVTestSuite) TestMissingRequiredColumn() {
	input := `time,open,high,low,volume
2024-01-01T00:00:00Z,100,101,99,1000
`

	_, err := ReadBars(strings.NewReader(input))
	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeMissingColumn))
}

func (s *CSVTestSuite) TestNonNumericPriceFails() {
	input := `time,open,high,low,close,volume
2024-01-01T00:00:00Z,abc,101,99,100,1000
`

	_, err := ReadBars(strings.NewReader(input))
	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeDataParseFailed))
}

func (s *CSVTestSuite) TestUnixSecondsTimestamps() {
	input := `time,open,high,low,close,volume
1704067200,100,101,99,100,1000
`

	bars, err := ReadBars(strings.NewReader(input))
	s.Require().NoError(err)
	s.Require().Len(bars, 1)
	s.Assert().Equal(2024, bars[0].Time.UTC().Year())
}

func (s *CSVTestSuite) TestLoadCSVValidatesOrdering() {
	dir := s.T().TempDir()
	path := dir + "/bars.csv"

	input := `time,open,high,low,close,volume
2024-01-01T02:00:00Z,100,101,99,100,1000
2024-01-01T01:00:00Z,100,101,99,100,1000
`

	s.Require().NoError(os.WriteFile(path, []byte(input), 0644))

	_, err := LoadCSV(path)
	s.Require().Error(err)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeUnorderedData))
}
