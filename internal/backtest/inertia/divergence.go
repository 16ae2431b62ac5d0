package inertia

// DetectDivergence flags bars where a fresh price extreme is not confirmed
// by the oscillator over the lookback window: a new price high with a
// lower oscillator high is bearish (-1), a new price low with a higher
// oscillator low is bullish (+1).
func DetectDivergence(price, rsi []float64, lookback int) []int {
	div := make([]int, len(price))
	if lookback < 1 {
		return div
	}
	for i := lookback; i < len(price); i++ {
		pMax, pMin := price[i], price[i]
		rMax, rMin := rsi[i], rsi[i]
		for j := i - lookback; j < i; j++ {
			if price[j] > pMax {
				pMax = price[j]
			}
			if price[j] < pMin {
				pMin = price[j]
			}
			if rsi[j] > rMax {
				rMax = rsi[j]
			}
			if rsi[j] < rMin {
				rMin = rsi[j]
			}
		}
		switch {
		case price[i] == pMax && rsi[i] < rMax:
			div[i] = -1
		case price[i] == pMin && rsi[i] > rMin:
			div[i] = 1
		}
	}
	return div
}
