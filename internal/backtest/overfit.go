package backtest

// Overfit detection thresholds: a strategy whose out-of-sample metrics
// retain less than half of the in-sample values is flagged.
const overfitRatioFloor = 0.5

// OverfitReport compares in-sample against out-of-sample performance.
type OverfitReport struct {
	ReturnRatio  float64 `json:"return_ratio"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	WinRateRatio float64 `json:"win_rate_ratio"`

	// DegradationScore is the mean retention ratio in 0..100; low values
	// mean the out-of-sample results collapsed relative to in-sample.
	DegradationScore float64 `json:"degradation_score"`
	Overfit          bool    `json:"overfit"`
}

// DetectOverfitting flags curve-fit strategies by comparing the metric
// ratios of two backtest results, typically a train run and a test run.
// A sign flip from profitable in-sample to losing out-of-sample is always
// flagged regardless of the ratio score.
func DetectOverfitting(inSample, outOfSample PerformanceMetrics) OverfitReport {
	report := OverfitReport{
		ReturnRatio:  cappedRatio(outOfSample.TotalReturn, inSample.TotalReturn),
		SharpeRatio:  cappedRatio(outOfSample.SharpeRatio, inSample.SharpeRatio),
		WinRateRatio: cappedRatio(outOfSample.WinRate, inSample.WinRate),
	}
	report.DegradationScore = average([]float64{report.ReturnRatio, report.SharpeRatio, report.WinRateRatio}) * 100

	signFlip := inSample.TotalReturn > 0 && outOfSample.TotalReturn < 0
	report.Overfit = signFlip || report.DegradationScore < overfitRatioFloor*100
	return report
}
