// Package store persists simulation trade activity in an in-memory duckdb
// database, giving the hosting application SQL access to fills and round
// trips plus a parquet export.
package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantfox/btcsim/internal/logger"
	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id VARCHAR PRIMARY KEY,
	action VARCHAR,
	amount DOUBLE,
	target_price DOUBLE,
	execution_price DOUBLE,
	value DOUBLE,
	fee DOUBLE,
	slippage DOUBLE,
	slippage_pct DOUBLE,
	time TIMESTAMP,
	strategy VARCHAR,
	balance_after DOUBLE,
	asset_after DOUBLE
);

CREATE TABLE IF NOT EXISTS closed_trades (
	position_id VARCHAR,
	symbol VARCHAR,
	entry_price DOUBLE,
	exit_price DOUBLE,
	amount DOUBLE,
	entry_time TIMESTAMP,
	exit_time TIMESTAMP,
	exit_reason VARCHAR,
	fees DOUBLE,
	slippage DOUBLE,
	pnl DOUBLE
);
`

// ActionTotals aggregates fills per action.
type ActionTotals struct {
	Count         int
	TotalValue    float64
	TotalFees     float64
	TotalSlippage float64
}

// TradeStore records fills and round trips in duckdb.
type TradeStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewTradeStore opens an in-memory store and creates the schema.
func NewTradeStore(log *logger.Logger) (*TradeStore, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open duckdb", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create schema", err)
	}

	return &TradeStore{db: db, log: log}, nil
}

// Close releases the database.
func (s *TradeStore) Close() error {
	return s.db.Close()
}

// RecordTrade inserts one fill transactionally.
func (s *TradeStore) RecordTrade(trade types.Trade) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := sq.Insert("trades").
		Columns("id", "action", "amount", "target_price", "execution_price", "value",
			"fee", "slippage", "slippage_pct", "time", "strategy", "balance_after", "asset_after").
		Values(trade.ID, string(trade.Action), trade.Amount, trade.TargetPrice, trade.ExecutionPrice,
			trade.Value, trade.Fee, trade.Slippage, trade.SlippagePct, trade.Time, trade.Strategy,
			trade.BalanceAfter, trade.AssetAfter).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build insert", err)
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert trade", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit trade", err)
	}

	return nil
}

// RecordClosedTrade inserts one completed round trip transactionally.
func (s *TradeStore) RecordClosedTrade(closed types.ClosedTrade) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := sq.Insert("closed_trades").
		Columns("position_id", "symbol", "entry_price", "exit_price", "amount",
			"entry_time", "exit_time", "exit_reason", "fees", "slippage", "pnl").
		Values(closed.PositionID, closed.Symbol, closed.EntryPrice, closed.ExitPrice, closed.Amount,
			closed.EntryTime, closed.ExitTime, string(closed.ExitReason), closed.Fees, closed.Slippage,
			closed.PnL).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build insert", err)
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert closed trade", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit closed trade", err)
	}

	return nil
}

// ActionTotals aggregates the fill log per action.
func (s *TradeStore) ActionTotals() (map[types.TradeAction]ActionTotals, error) {
	query, args, err := sq.Select(
		"action",
		"COUNT(*)",
		"COALESCE(SUM(value), 0)",
		"COALESCE(SUM(fee), 0)",
		"COALESCE(SUM(slippage), 0)",
	).
		From("trades").
		GroupBy("action").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query action totals", err)
	}
	defer rows.Close()

	totals := make(map[types.TradeAction]ActionTotals)

	for rows.Next() {
		var (
			action string
			total  ActionTotals
		)

		if err := rows.Scan(&action, &total.Count, &total.TotalValue, &total.TotalFees, &total.TotalSlippage); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan action totals", err)
		}

		totals[types.TradeAction(action)] = total
	}

	return totals, rows.Err()
}

// ExitReasonCounts counts round trips per exit reason.
func (s *TradeStore) ExitReasonCounts() (map[types.ExitReason]int, error) {
	query, args, err := sq.Select("exit_reason", "COUNT(*)").
		From("closed_trades").
		GroupBy("exit_reason").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query exit reasons", err)
	}
	defer rows.Close()

	counts := make(map[types.ExitReason]int)

	for rows.Next() {
		var (
			reason string
			count  int
		)

		if err := rows.Scan(&reason, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan exit reasons", err)
		}

		counts[types.ExitReason(reason)] = count
	}

	return counts, rows.Err()
}

// TotalPnL sums realized P&L over all round trips.
func (s *TradeStore) TotalPnL() (float64, error) {
	query, args, err := sq.Select("COALESCE(SUM(pnl), 0)").From("closed_trades").ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var total float64
	if err := s.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query total pnl", err)
	}

	return total, nil
}

// Write exports both tables as parquet files under the given directory.
func (s *TradeStore) Write(dir string) error {
	for _, table := range []string{"trades", "closed_trades"} {
		statement := fmt.Sprintf("COPY %s TO '%s/%s.parquet' (FORMAT PARQUET)", table, dir, table)
		if _, err := s.db.Exec(statement); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to export %s", table)
		}

		s.log.Info("exported table", zap.String("table", table), zap.String("dir", dir))
	}

	return nil
}
