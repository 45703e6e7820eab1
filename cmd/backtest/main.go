package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantfox/btcsim/internal/logger"
	"github.com/quantfox/btcsim/internal/marketdata"
	"github.com/quantfox/btcsim/internal/simulator"
	"github.com/quantfox/btcsim/internal/simulator/signal"
	"github.com/quantfox/btcsim/internal/simulator/strategy"
	"github.com/quantfox/btcsim/internal/store"
	"github.com/quantfox/btcsim/internal/types"
)

// backtestAction loads the data and configuration, runs the simulation and
// writes the report plus the trade store export to the output directory.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	configPath := cmd.String("config")
	outputDir := cmd.String("output")
	includeTrades := cmd.Bool("trades")

	config := simulator.DefaultConfig()

	if configPath != "" {
		var err error

		config, err = simulator.ReadConfig(configPath)
		if err != nil {
			return err
		}
	}

	if cmd.Bool("synthetic") {
		config.SyntheticMode = true
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	bars, err := marketdata.LoadCSV(dataPath)
	if err != nil {
		return err
	}

	engine, err := simulator.NewEngine(config, appLogger)
	if err != nil {
		return err
	}

	if err := engine.LoadData(bars); err != nil {
		return err
	}

	generators, err := buildGenerators()
	if err != nil {
		return err
	}

	strategies, err := buildStrategies(cmd.StringSlice("strategy"))
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(bars) - 1))

	onStep := optional.Some[simulator.OnStepCallback](func(step simulator.StepResult) {
		_ = bar.Add(1)
	})

	result, err := engine.RunSimulation(ctx, generators, strategies, onStep)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := exportResults(appLogger, config.Symbol, result, outputDir, includeTrades); err != nil {
		return err
	}

	fmt.Printf("steps: %d  trades: %d  win rate: %.1f%%  net profit: %.2f  total return: %.2f%%\n",
		result.Steps,
		result.Metrics.TotalTrades,
		result.Metrics.WinRate*100,
		result.Metrics.NetProfit,
		result.Metrics.TotalReturn*100,
	)

	return nil
}

// exportResults writes the YAML report and fills the duckdb trade store,
// exporting both tables as parquet next to the report.
func exportResults(appLogger *logger.Logger, symbol string, result simulator.RunResult, outputDir string, includeTrades bool) error {
	generatedAt := time.Now()
	if len(result.PortfolioHistory) > 0 {
		generatedAt = result.PortfolioHistory[len(result.PortfolioHistory)-1].Time
	}

	report := types.Report{
		GeneratedAt: generatedAt,
		Symbol:      symbol,
		Metrics:     result.Metrics,
		Summary: fmt.Sprintf("%d trades, win rate %.1f%%, net profit %.2f",
			result.Metrics.TotalTrades, result.Metrics.WinRate*100, result.Metrics.NetProfit),
	}

	if includeTrades {
		report.Trades = result.ClosedTrades
	}

	if err := types.WriteReport(filepath.Join(outputDir, "report.yaml"), report); err != nil {
		return err
	}

	tradeStore, err := store.NewTradeStore(appLogger)
	if err != nil {
		return err
	}
	defer tradeStore.Close()

	for _, trade := range result.Trades {
		if err := tradeStore.RecordTrade(trade); err != nil {
			return err
		}
	}

	for _, closed := range result.ClosedTrades {
		if err := tradeStore.RecordClosedTrade(closed); err != nil {
			return err
		}
	}

	return tradeStore.Write(outputDir)
}

func buildGenerators() ([]signal.Generator, error) {
	technical, err := signal.NewTechnicalGenerator(nil, 0.3)
	if err != nil {
		return nil, err
	}

	prediction, err := signal.NewPredictionGenerator(signal.DefaultConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	hybrid, err := signal.NewHybridGenerator([]signal.WeightedGenerator{
		{Generator: technical, Weight: 0.5},
		{Generator: prediction, Weight: 0.5},
	}, 0.3)
	if err != nil {
		return nil, err
	}

	return []signal.Generator{technical, prediction, hybrid}, nil
}

func buildStrategies(names []string) ([]strategy.Strategy, error) {
	if len(names) == 0 {
		names = []string{"trend_following", "mean_reversion"}
	}

	strategies := make([]strategy.Strategy, 0, len(names))

	for _, name := range names {
		var (
			strat strategy.Strategy
			err   error
		)

		switch name {
		case "trend_following":
			strat, err = strategy.NewTrendFollowingStrategy(0, 0)
		case "mean_reversion":
			strat, err = strategy.NewMeanReversionStrategy(0, 0)
		case "breakout":
			strat, err = strategy.NewBreakoutStrategy(0, 0, 0)
		case "machine_learning":
			strat, err = strategy.NewMachineLearningStrategy(0)
		default:
			return nil, fmt.Errorf("unknown strategy %q", name)
		}

		if err != nil {
			return nil, err
		}

		strategies = append(strategies, strat)
	}

	return strategies, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a trading simulation over a CSV bar series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the CSV bar data",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration; defaults apply when omitted",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for the report and trade store export",
				Value:   "results",
			},
			&cli.StringSliceFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy to run (trend_following, mean_reversion, breakout, machine_learning); repeatable",
			},
			&cli.BoolFlag{
				Name:  "synthetic",
				Usage: "Fabricate missing indicator and prediction columns",
			},
			&cli.BoolFlag{
				Name:  "trades",
				Usage: "Include the trade list in the report",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
