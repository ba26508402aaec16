package formulas

// SharpeRatio calculates the annualized Sharpe ratio of a periodic return
// series.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Annualized Return - Risk-free Rate) / Annualized Volatility
//
// Args:
//
//	returns: Array of periodic returns (daily, monthly, etc.)
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.02 for 2%)
//	periodsPerYear: Number of periods per year (252 for daily, 12 for monthly)
//
// Returns:
//
//	Sharpe ratio, or nil if there is insufficient data or the return series
//	has zero volatility (the ratio is undefined in that case).
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	annVol := AnnualizedVolatility(returns, periodsPerYear)
	if annVol == 0 {
		return nil
	}

	annReturn := AnnualizedReturn(returns, periodsPerYear)
	sharpe := (annReturn - riskFreeRate) / annVol

	return &sharpe
}

// SharpeFromPrices is a convenience function that calculates the Sharpe ratio
// directly from daily price data
func SharpeFromPrices(prices []float64, riskFreeRate float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	returns := CalculateReturns(prices)

	// Daily data, 252 trading days per year
	return SharpeRatio(returns, riskFreeRate, 252)
}
