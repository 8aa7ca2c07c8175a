// Package main provides the entry point for the trade simulation CLI.
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/config"
	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/logger"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/portfolio"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	outputPath string

	appLogger *logrus.Logger
	runLog    *logger.RunLogger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Optional path for CSV/HTML report export")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(walkForwardCmd)
	rootCmd.AddCommand(monteCarloCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "tradesim",
	Short: "Deterministic backtesting and execution simulation",
	Long:  `Replays historical bar series against strategy signals with realistic execution costs, and wraps the replay in walk-forward, Monte Carlo and multi-asset portfolio analysis.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		loaded, err := config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		appLogger = logger.NewLogger(cfg.App.LogLevel)
		runLog = logger.NewRunLogger(appLogger)

		metrics.InitRegistry()
		if cfg.Metrics.Enabled {
			go serveMetrics(cfg.Metrics.Address)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tradesim %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a historical single-asset backtest",
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, bars, err := loadInputs()
		if err != nil {
			return err
		}

		engine, err := backtest.NewEngine(cfg.EngineConfig(), backtest.WithLogger(appLogger))
		if err != nil {
			return err
		}

		runLog.LogRunStart(cfg.Data.Symbol, cfg.BuildStrategy().Name(), len(bars), cfg.Backtest.InitialCapital)
		started := time.Now()
		result, err := engine.RunBacktest(signals, bars, cfg.Data.Symbol)
		if err != nil {
			metrics.RecordRun("historical", "failure", time.Since(started).Seconds())
			return err
		}
		metrics.RecordRun("historical", "success", time.Since(started).Seconds())
		metrics.RecordTrades(len(result.Trades))
		metrics.UpdateFinalEquity(result.Symbol, result.FinalCapital)
		if result.Truncated {
			metrics.RecordCircuitBreakerTrip()
		}

		runLog.LogRunComplete(result.Symbol, len(result.Trades), result.FinalCapital,
			result.Metrics.TotalReturn, result.Metrics.MaxDrawdown, result.Truncated)

		fmt.Print(backtest.GenerateConsoleReport(result))
		return exportReports(result)
	},
}

var walkForwardCmd = &cobra.Command{
	Use:   "walk-forward",
	Short: "Run rolling walk-forward analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, bars, err := loadInputs()
		if err != nil {
			return err
		}

		analyzer, err := backtest.NewWalkForwardAnalyzer(cfg.EngineConfig(), appLogger)
		if err != nil {
			return err
		}

		wf := cfg.Analysis.WalkForward
		started := time.Now()
		windows, err := analyzer.Run(signals, bars, cfg.Data.Symbol, wf.TrainSize, wf.TestSize)
		if err != nil {
			metrics.RecordRun("walk_forward", "failure", time.Since(started).Seconds())
			return err
		}
		metrics.RecordRun("walk_forward", "success", time.Since(started).Seconds())

		robustness := backtest.AggregateRobustness(windows)
		metrics.UpdateRobustnessScore(cfg.Data.Symbol, robustness)
		runLog.LogWalkForward(cfg.Data.Symbol, len(windows), wf.TrainSize, wf.TestSize, robustness)

		flagged := 0
		for _, window := range windows {
			report := backtest.DetectOverfitting(window.InSample, window.OutOfSample)
			if report.Overfit {
				flagged++
			}
		}
		fmt.Printf("Walk-forward: %d windows, aggregate robustness %.1f, %d flagged as overfit\n",
			len(windows), robustness, flagged)
		fmt.Println(backtest.WalkForwardToJSON(windows))
		return nil
	},
}

var monteCarloCmd = &cobra.Command{
	Use:   "monte-carlo",
	Short: "Resample the realized trade sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, bars, err := loadInputs()
		if err != nil {
			return err
		}

		engine, err := backtest.NewEngine(cfg.EngineConfig(), backtest.WithLogger(appLogger))
		if err != nil {
			return err
		}
		result, err := engine.RunBacktest(signals, bars, cfg.Data.Symbol)
		if err != nil {
			return err
		}

		mc := cfg.Analysis.MonteCarlo
		simulator := backtest.NewMonteCarloSimulator(backtest.MonteCarloConfig{
			Simulations: mc.Simulations,
			MaxDrawdown: mc.MaxDrawdown,
			Seed:        mc.Seed,
		})

		started := time.Now()
		mcResult, err := simulator.Run(result, mc.Simulations)
		if err != nil {
			metrics.RecordRun("monte_carlo", "failure", time.Since(started).Seconds())
			return err
		}
		metrics.RecordRun("monte_carlo", "success", time.Since(started).Seconds())
		metrics.RecordMonteCarloSimulations(mcResult.Simulations)

		runLog.LogMonteCarlo(cfg.Data.Symbol, mcResult.Simulations,
			mcResult.ProbabilityOfProfit, mcResult.MeanReturn)
		fmt.Println(mcResult.ToJSON())
		return nil
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Run the multi-asset portfolio replay",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Portfolio.Enabled {
			return fmt.Errorf("portfolio mode is disabled in configuration")
		}

		engine, err := portfolio.NewEngine(cfg.PortfolioEngineConfig(),
			portfolio.WithLogger(appLogger),
			portfolio.WithProgress(func(processed, total int) {
				if processed%50 == 0 || processed == total {
					appLogger.WithFields(logrus.Fields{
						"processed": processed,
						"total":     total,
					}).Debug("Portfolio replay progress")
				}
			}))
		if err != nil {
			return err
		}

		loader := datasource.NewCSVLoader()
		for symbol, path := range cfg.Portfolio.Files {
			bars, err := loader.LoadBars(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", symbol, err)
			}
			if err := engine.LoadData(symbol, bars); err != nil {
				return err
			}
		}

		started := time.Now()
		result, err := engine.Run()
		if err != nil {
			metrics.RecordRun("portfolio", "failure", time.Since(started).Seconds())
			return err
		}
		metrics.RecordRun("portfolio", "success", time.Since(started).Seconds())
		metrics.RecordTrades(len(result.Trades))
		for _, event := range result.RebalanceEvents {
			metrics.RecordRebalance(string(event.Reason))
		}

		runLog.LogPortfolioRun(len(result.Symbols), len(result.Trades),
			len(result.RebalanceEvents), result.FinalCapital)
		fmt.Printf("Portfolio: %d symbols, %d trades, %d rebalances, final capital %.2f (%.2f%% return)\n",
			len(result.Symbols), len(result.Trades), len(result.RebalanceEvents),
			result.FinalCapital, result.Metrics.TotalReturn)
		return nil
	},
}

// loadInputs reads the configured bar series and generates the aligned
// signal stream.
func loadInputs() ([]models.StrategySignal, []models.Bar, error) {
	loader := datasource.NewCSVLoader()
	bars, err := loader.LoadBars(cfg.Data.CSVPath)
	if err != nil {
		return nil, nil, err
	}

	strat := cfg.BuildStrategy()
	signals, err := strat.GenerateSignals(bars)
	if err != nil {
		return nil, nil, fmt.Errorf("generating signals with %s: %w", strat.Name(), err)
	}
	return signals, bars, nil
}

func exportReports(result *backtest.Result) error {
	if outputPath == "" {
		return nil
	}
	if err := backtest.GenerateCSVExport(result, outputPath+".csv"); err != nil {
		return err
	}
	return backtest.GenerateHTMLReport(result, outputPath+".html")
}

func serveMetrics(address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(address, mux); err != nil {
		appLogger.WithError(err).Warn("Metrics endpoint stopped")
	}
}
