package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/quantfox/btcsim/internal/logger"
	"github.com/quantfox/btcsim/internal/types"
)

type TradeStoreTestSuite struct {
	suite.Suite

	store *TradeStore
}

func TestTradeStoreSuite(t *testing.T) {
	suite.Run(t, new(TradeStoreTestSuite))
}

func (s *TradeStoreTestSuite) SetupTest() {
	store, err := NewTradeStore(logger.NewNopLogger())
	s.Require().NoError(err)

	s.store = store
}

func (s *TradeStoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *TradeStoreTestSuite) fill(action types.TradeAction, value, fee float64) types.Trade {
	return types.Trade{
		ID:             uuid.New().String(),
		Action:         action,
		Amount:         1,
		TargetPrice:    100,
		ExecutionPrice: 100,
		Value:          value,
		Fee:            fee,
		Time:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Strategy:       "test",
	}
}

func (s *TradeStoreTestSuite) TestActionTotals() {
	s.Require().NoError(s.store.RecordTrade(s.fill(types.TradeActionBuy, 1000, 1)))
	s.Require().NoError(s.store.RecordTrade(s.fill(types.TradeActionBuy, 500, 0.5)))
	s.Require().NoError(s.store.RecordTrade(s.fill(types.TradeActionSell, 800, 0.8)))

	totals, err := s.store.ActionTotals()
	s.Require().NoError(err)

	s.Assert().Equal(2, totals[types.TradeActionBuy].Count)
	s.Assert().InDelta(1500, totals[types.TradeActionBuy].TotalValue, 1e-9)
	s.Assert().InDelta(1.5, totals[types.TradeActionBuy].TotalFees, 1e-9)
	s.Assert().Equal(1, totals[types.TradeActionSell].Count)
}

func (s *TradeStoreTestSuite) TestClosedTradeAggregates() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	closes := []types.ClosedTrade{
		{PositionID: uuid.New().String(), Symbol: "BTC-USD", PnL: 120, ExitReason: types.ExitReasonTakeProfit, EntryTime: base, ExitTime: base.Add(time.Hour)},
		{PositionID: uuid.New().String(), Symbol: "BTC-USD", PnL: -40, ExitReason: types.ExitReasonStopLoss, EntryTime: base, ExitTime: base.Add(2 * time.Hour)},
		{PositionID: uuid.New().String(), Symbol: "BTC-USD", PnL: 10, ExitReason: types.ExitReasonStrategy, EntryTime: base, ExitTime: base.Add(3 * time.Hour)},
	}

	for _, closed := range closes {
		s.Require().NoError(s.store.RecordClosedTrade(closed))
	}

	total, err := s.store.TotalPnL()
	s.Require().NoError(err)
	s.Assert().InDelta(90, total, 1e-9)

	counts, err := s.store.ExitReasonCounts()
	s.Require().NoError(err)
	s.Assert().Equal(1, counts[types.ExitReasonStopLoss])
	s.Assert().Equal(1, counts[types.ExitReasonTakeProfit])
	s.Assert().Equal(1, counts[types.ExitReasonStrategy])
}

func (s *TradeStoreTestSuite) TestEmptyAggregates() {
	total, err := s.store.TotalPnL()
	s.Require().NoError(err)
	s.Assert().Zero(total)

	totals, err := s.store.ActionTotals()
	s.Require().NoError(err)
	s.Assert().Empty(totals)
}

func (s *TradeStoreTestSuite) TestWriteExportsParquet() {
	s.Require().NoError(s.store.RecordTrade(s.fill(types.TradeActionBuy, 1000, 1)))

	dir := s.T().TempDir()
	s.Require().NoError(s.store.Write(dir))

	s.Assert().FileExists(dir + "/trades.parquet")
	s.Assert().FileExists(dir + "/closed_trades.parquet")
}
