package sr

// pivot is a raw local extreme before clustering.
type pivot struct {
	bar        int
	price      float64
	high       bool // pivot high vs pivot low
	structural bool
}

// pivotHighs returns bars whose high strictly exceeds the highs of n bars
// on each side.
func pivotHighs(highs []float64, n int) []pivot {
	var out []pivot
	for i := n; i < len(highs)-n; i++ {
		ok := true
		for j := 1; j <= n; j++ {
			if highs[i] <= highs[i-j] || highs[i] <= highs[i+j] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, pivot{bar: i, price: highs[i], high: true})
		}
	}
	return out
}

// pivotLows returns bars whose low is strictly below the lows of n bars on
// each side.
func pivotLows(lows []float64, n int) []pivot {
	var out []pivot
	for i := n; i < len(lows)-n; i++ {
		ok := true
		for j := 1; j <= n; j++ {
			if lows[i] >= lows[i-j] || lows[i] >= lows[i+j] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, pivot{bar: i, price: lows[i], high: false})
		}
	}
	return out
}

// markStructural flags pivots confirmed by a subsequent opposing extreme.
// A pivot high is structural when, within confirmBars afterward, price
// breaks the swing low that preceded it. Pivot lows mirror with a break of
// the preceding swing high.
func markStructural(highPivots, lowPivots []pivot, highs, lows []float64, confirmBars int) {
	for i := range highPivots {
		pv := &highPivots[i]
		ref, ok := lastPivotBefore(lowPivots, pv.bar)
		if !ok {
			continue
		}
		end := pv.bar + confirmBars
		if end >= len(lows) {
			end = len(lows) - 1
		}
		for j := pv.bar + 1; j <= end; j++ {
			if lows[j] < ref.price {
				pv.structural = true
				break
			}
		}
	}
	for i := range lowPivots {
		pv := &lowPivots[i]
		ref, ok := lastPivotBefore(highPivots, pv.bar)
		if !ok {
			continue
		}
		end := pv.bar + confirmBars
		if end >= len(highs) {
			end = len(highs) - 1
		}
		for j := pv.bar + 1; j <= end; j++ {
			if highs[j] > ref.price {
				pv.structural = true
				break
			}
		}
	}
}

// lastPivotBefore returns the most recent pivot strictly before bar.
// Pivot slices are naturally ordered by bar index.
func lastPivotBefore(pivots []pivot, bar int) (pivot, bool) {
	for i := len(pivots) - 1; i >= 0; i-- {
		if pivots[i].bar < bar {
			return pivots[i], true
		}
	}
	return pivot{}, false
}
