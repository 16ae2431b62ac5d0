package sr

import (
	"sort"

	"TradeAgent/internal/domain/models"
)

// cluster is an accumulator in the clustering arena. Price is the running
// score-weighted average of merged pivots.
type cluster struct {
	price      float64
	kind       models.LevelKind
	touches    int
	lastBar    int
	score      float64
	structural bool
	flipped    bool
}

func (c *cluster) merge(price, score float64, bar int, structural bool) {
	total := c.score + score
	if total > 0 {
		c.price = (c.price*c.score + price*score) / total
	}
	c.score = total
	c.touches++
	if bar > c.lastBar {
		c.lastBar = bar
	}
	c.structural = c.structural || structural
}

// scoredPivot is a pivot with its final accumulated score and implied kind.
type scoredPivot struct {
	bar        int
	price      float64
	kind       models.LevelKind
	score      float64
	structural bool
}

// clusterPivots greedily merges price-sorted pivots into an arena of
// clusters, then repeats a pairwise merge pass until no two clusters sit
// within width of each other. The repeat makes the dedup idempotent:
// weighted-average drift during the first pass can leave neighbors closer
// than the tolerance.
func clusterPivots(pivots []scoredPivot, width float64) []*cluster {
	if len(pivots) == 0 {
		return nil
	}
	sort.SliceStable(pivots, func(i, j int) bool { return pivots[i].price < pivots[j].price })

	var arena []*cluster
	for _, pv := range pivots {
		merged := false
		for i := len(arena) - 1; i >= 0; i-- {
			cl := arena[i]
			if abs(cl.price-pv.price) <= width {
				cl.merge(pv.price, pv.score, pv.bar, pv.structural)
				merged = true
				break
			}
		}
		if !merged {
			arena = append(arena, &cluster{
				price:      pv.price,
				kind:       pv.kind,
				touches:    1,
				lastBar:    pv.bar,
				score:      pv.score,
				structural: pv.structural,
			})
		}
	}

	for {
		if !mergeNeighbors(arena, width) {
			break
		}
		arena = compact(arena)
	}
	return arena
}

// mergeNeighbors folds any price-adjacent pair within width into the
// earlier cluster, marking the later one dead (nil price via touches=0).
func mergeNeighbors(arena []*cluster, width float64) bool {
	sort.SliceStable(arena, func(i, j int) bool { return arena[i].price < arena[j].price })
	changed := false
	for i := 1; i < len(arena); i++ {
		prev, cur := arena[i-1], arena[i]
		if prev.touches == 0 || cur.touches == 0 {
			continue
		}
		if abs(prev.price-cur.price) <= width {
			total := prev.score + cur.score
			if total > 0 {
				prev.price = (prev.price*prev.score + cur.price*cur.score) / total
			}
			prev.score = total
			prev.touches += cur.touches
			if cur.lastBar > prev.lastBar {
				prev.lastBar = cur.lastBar
			}
			prev.structural = prev.structural || cur.structural
			cur.touches = 0
			changed = true
		}
	}
	return changed
}

func compact(arena []*cluster) []*cluster {
	out := arena[:0]
	for _, cl := range arena {
		if cl.touches > 0 {
			out = append(out, cl)
		}
	}
	return out
}

// applyBOSFlips flips a cluster's role when price has closed beyond it
// after its last touch: a close above a resistance turns it into support,
// a close below a support into resistance.
func applyBOSFlips(arena []*cluster, closes []float64) {
	for _, cl := range arena {
		start := cl.lastBar + 1
		if start < 0 {
			start = 0
		}
		for i := start; i < len(closes); i++ {
			if cl.kind == models.KindResistance && closes[i] > cl.price {
				cl.kind = cl.kind.Opposite()
				cl.flipped = true
				break
			}
			if cl.kind == models.KindSupport && closes[i] < cl.price {
				cl.kind = cl.kind.Opposite()
				cl.flipped = true
				break
			}
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
