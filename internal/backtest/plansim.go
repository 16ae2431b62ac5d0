package backtest

import (
	"TradeAgent/internal/analysis/plan"
	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/util"
)

// RunPlan walks the candle series bar by bar applying the discrete rules
// of a trade plan: zone entry, stop, take profit, invalidation and time
// stop, with any open position force-closed on the final bar. Exit checks
// run in priority order; the first satisfied rule closes the trade.
func RunPlan(candles []models.Candle, p *models.Plan, riskParams plan.RiskParams, feeBps float64) *models.PlanResult {
	rp := riskParams.Merge()
	feeRate := feeBps / 10_000

	result := &models.PlanResult{Plan: p, Trades: []models.TradeRecord{}}
	result.Metrics.Bars = len(candles)
	result.Metrics.Bias = p.PrimaryBias
	if len(candles) == 0 {
		return result
	}

	var entryZone *models.KeyLevel
	if len(p.EntryRules) > 0 {
		entryZone = p.EntryRules[0].Zone
	}
	var tpPrice float64
	if len(p.Targets) > 0 {
		tpPrice = p.Targets[0].Price
	}

	bias := p.PrimaryBias
	inv := p.Invalidation

	position := 0
	entryPrice := 0.0
	entryBar := 0
	stopPrice := 0.0
	target := 0.0

	closeTrade := func(i int, exitPrice float64, reason models.ExitReason) {
		var pnl float64
		if position == 1 && entryPrice != 0 {
			pnl = exitPrice/entryPrice - 1 - 2*feeRate
		} else if position == -1 && exitPrice != 0 {
			pnl = entryPrice/exitPrice - 1 - 2*feeRate
		}
		result.Trades = append(result.Trades, models.TradeRecord{
			EntryTime:  candles[entryBar].OpenTime,
			ExitTime:   candles[i].OpenTime,
			Side:       sideOf(position),
			EntryPrice: util.Round(entryPrice, 2),
			ExitPrice:  util.Round(exitPrice, 2),
			PnLPct:     util.Round(pnl*100, 4),
			ExitReason: reason,
			BarsHeld:   i - entryBar,
		})
		position = 0
	}

	for i := 1; i < len(candles); i++ {
		c := candles[i].Close
		h := candles[i].High
		lo := candles[i].Low

		if position == 0 {
			if bias == models.BiasNeutral || entryZone == nil {
				continue
			}
			zonePrice := entryZone.Price
			width := zoneWidth(zonePrice)
			if abs(c-zonePrice) > width*1.5 {
				continue
			}
			switch bias {
			case models.BiasLong:
				position = 1
				stopPrice = zonePrice - rp.ATRStopMult*width*2
				target = tpPrice
				if target == 0 {
					target = c * 1.05
				}
			case models.BiasShort:
				position = -1
				stopPrice = zonePrice + rp.ATRStopMult*width*2
				target = tpPrice
				if target == 0 {
					target = c * 0.95
				}
			}
			entryPrice = c
			entryBar = i
			continue
		}

		barsHeld := i - entryBar
		if position == 1 {
			switch {
			case lo <= stopPrice:
				closeTrade(i, stopPrice, models.ExitStop)
			case h >= target:
				closeTrade(i, target, models.ExitTakeProfit)
			case inv.BearBelow > 0 && lo <= inv.BearBelow:
				closeTrade(i, inv.BearBelow, models.ExitInvalidation)
			case barsHeld >= rp.TimeStopBars:
				closeTrade(i, c, models.ExitTimeStop)
			}
		} else {
			switch {
			case h >= stopPrice:
				closeTrade(i, stopPrice, models.ExitStop)
			case lo <= target:
				closeTrade(i, target, models.ExitTakeProfit)
			case inv.BullAbove > 0 && h >= inv.BullAbove:
				closeTrade(i, inv.BullAbove, models.ExitInvalidation)
			case barsHeld >= rp.TimeStopBars:
				closeTrade(i, c, models.ExitTimeStop)
			}
		}
	}

	if position != 0 {
		last := len(candles) - 1
		closeTrade(last, candles[last].Close, models.ExitEndOfData)
	}

	fillPlanMetrics(&result.Metrics, result.Trades)
	return result
}

func sideOf(position int) models.Side {
	if position == -1 {
		return models.SideShort
	}
	return models.SideLong
}

// fillPlanMetrics derives summary statistics from the trade ledger using
// trade-level compounding.
func fillPlanMetrics(m *models.PlanMetrics, trades []models.TradeRecord) {
	m.Trades = len(trades)
	if len(trades) == 0 {
		return
	}

	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	var winSum, lossSum float64
	for _, t := range trades {
		equity *= 1 + t.PnLPct/100
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
		if t.PnLPct > 0 {
			m.Wins++
			winSum += t.PnLPct
		} else {
			m.Losses++
			lossSum += t.PnLPct
		}
	}

	m.TotalReturnPct = util.Round((equity-1)*100, 4)
	m.MaxDrawdownPct = util.Round(maxDD*100, 4)
	m.WinRatePct = util.Round(float64(m.Wins)/float64(len(trades))*100, 1)
	if m.Wins > 0 {
		m.AvgWinPct = util.Round(winSum/float64(m.Wins), 4)
	}
	if m.Losses > 0 {
		m.AvgLossPct = util.Round(lossSum/float64(m.Losses), 4)
	}
	if lossSum != 0 {
		m.ProfitFactor = util.Round(abs(winSum/lossSum), 3)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
