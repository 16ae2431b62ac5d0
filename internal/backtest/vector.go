package backtest

import (
	"math"

	"TradeAgent/internal/domain/models"
	"TradeAgent/internal/domain/repository"
	"TradeAgent/pkg/util"
)

// RunVectorized replays a position-signal series against candles with a
// proportional fee on every position change. The Sharpe ratio is
// annualized with the bars-per-year of the series' timeframe.
func RunVectorized(candles []models.Candle, signals []int, feeBps float64, tf repository.Timeframe) *models.VectorResult {
	n := len(candles)
	result := &models.VectorResult{Trades: []models.TradeRecord{}}
	result.Metrics.Bars = n
	if n == 0 || len(signals) != n {
		return result
	}

	feeRate := feeBps / 10_000

	netReturns := make([]float64, n)
	equity := make([]float64, n)
	prevEquity := 1.0
	for i := 0; i < n; i++ {
		ret := 0.0
		if i > 0 && candles[i-1].Close != 0 {
			ret = candles[i].Close/candles[i-1].Close - 1
		}
		// No fee on bar 0: there is no prior position to diff against.
		posChange := 0.0
		if i > 0 {
			posChange = math.Abs(float64(signals[i] - signals[i-1]))
		}
		netReturns[i] = float64(signals[i])*ret - posChange*feeRate
		prevEquity *= 1 + netReturns[i]
		equity[i] = prevEquity
	}

	result.Metrics.TotalReturnPct = util.Round((equity[n-1]-1)*100, 4)
	result.Metrics.MaxDrawdownPct = util.Round(maxDrawdown(equity)*100, 4)
	result.Metrics.Sharpe = util.Round(sharpe(netReturns, tf.BarsPerYear()), 4)

	result.Trades = tradeLedger(candles, signals, feeRate)
	result.Metrics.Trades = len(result.Trades)
	return result
}

// maxDrawdown is the worst peak-to-trough loss fraction, always >= 0.
// Non-positive peaks are skipped so the division stays defined.
func maxDrawdown(equity []float64) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - e) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func sharpe(returns []float64, barsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(barsPerYear)
}

// tradeLedger pairs entries and exits by walking position transitions.
func tradeLedger(candles []models.Candle, signals []int, feeRate float64) []models.TradeRecord {
	trades := []models.TradeRecord{}
	var open *models.TradeRecord
	entryIdx := 0

	for i := 1; i < len(candles); i++ {
		if signals[i] == signals[i-1] {
			continue
		}
		if open != nil {
			exitPrice := candles[i].Close
			sideMult := 1.0
			if open.Side == models.SideShort {
				sideMult = -1
			}
			pnl := 0.0
			if open.EntryPrice != 0 {
				pnl = (exitPrice-open.EntryPrice)/open.EntryPrice*sideMult - 2*feeRate
			}
			open.ExitTime = candles[i].OpenTime
			open.ExitPrice = exitPrice
			open.PnLPct = util.Round(pnl*100, 4)
			open.BarsHeld = i - entryIdx
			open.ExitReason = models.ExitSignalFlip
			trades = append(trades, *open)
			open = nil
		}
		if signals[i] != 0 {
			side := models.SideLong
			if signals[i] == -1 {
				side = models.SideShort
			}
			open = &models.TradeRecord{
				EntryTime:  candles[i].OpenTime,
				Side:       side,
				EntryPrice: candles[i].Close,
			}
			entryIdx = i
		}
	}
	return trades
}
