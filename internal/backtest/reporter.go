package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats a result for terminal output.
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Symbol: %s (%s -> %s, %d bars)\n", result.Symbol, result.StartDate, result.EndDate, result.Duration))
	if result.Truncated {
		builder.WriteString(fmt.Sprintf("TRUNCATED: %s\n", result.HaltReason))
	}
	builder.WriteString(fmt.Sprintf("Final Capital: %.2f\n", result.FinalCapital))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", result.Metrics.TotalReturn))
	builder.WriteString(fmt.Sprintf("Annualized Return: %.2f%%\n", result.Metrics.AnnualizedReturn))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", result.Metrics.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Sortino Ratio: %.2f\n", result.Metrics.SortinoRatio))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", result.Metrics.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", result.Metrics.WinRate))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", result.Metrics.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Trades: %d (%d wins / %d losses)\n",
		result.Metrics.TotalTrades, result.Metrics.WinningTrades, result.Metrics.LosingTrades))
	return builder.String()
}

// GenerateCSVExport writes key metrics for spreadsheets.
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	m := result.Metrics
	csv := "metric,value\n" +
		fmt.Sprintf("total_return,%.4f\n", m.TotalReturn) +
		fmt.Sprintf("annualized_return,%.4f\n", m.AnnualizedReturn) +
		fmt.Sprintf("volatility,%.4f\n", m.Volatility) +
		fmt.Sprintf("sharpe_ratio,%.4f\n", m.SharpeRatio) +
		fmt.Sprintf("sortino_ratio,%.4f\n", m.SortinoRatio) +
		fmt.Sprintf("calmar_ratio,%.4f\n", m.CalmarRatio) +
		fmt.Sprintf("max_drawdown,%.4f\n", m.MaxDrawdown) +
		fmt.Sprintf("win_rate,%.4f\n", m.WinRate) +
		fmt.Sprintf("profit_factor,%.4f\n", m.ProfitFactor) +
		fmt.Sprintf("expectancy,%.4f\n", m.Expectancy) +
		fmt.Sprintf("total_trades,%d\n", m.TotalTrades) +
		fmt.Sprintf("truncated,%t\n", result.Truncated)
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}

// GenerateHTMLReport creates a simple HTML report.
func GenerateHTMLReport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	m := result.Metrics
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Backtest Report - %s</title></head>
<body>
<h1>Backtest Report: %s</h1>
<p><strong>Period:</strong> %s to %s (%d bars)</p>
<p><strong>Final Capital:</strong> %.2f</p>
<p><strong>Total Return:</strong> %.2f%%</p>
<p><strong>Sharpe Ratio:</strong> %.2f</p>
<p><strong>Max Drawdown:</strong> %.2f%%</p>
<p><strong>Win Rate:</strong> %.2f%%</p>
<p><strong>Profit Factor:</strong> %.2f</p>
<p><strong>Trades:</strong> %d</p>
</body>
</html>`,
		result.Symbol,
		result.Symbol,
		result.StartDate,
		result.EndDate,
		result.Duration,
		result.FinalCapital,
		m.TotalReturn,
		m.SharpeRatio,
		m.MaxDrawdown,
		m.WinRate,
		m.ProfitFactor,
		m.TotalTrades,
	)

	return os.WriteFile(outputPath, []byte(html), 0o644)
}
