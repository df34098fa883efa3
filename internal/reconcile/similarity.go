package reconcile

import "sort"

// Ratio computes the Ratcliff/Obershelp similarity of two strings: twice
// the number of matching characters divided by the total length. This is
// the measure the duplicate thresholds (0.6, 0.7) are calibrated against;
// edit-distance metrics score differently and would shift the cutoffs.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	matched := matchTotal(ar, br, 0, len(ar), 0, len(br))
	return 2.0 * float64(matched) / float64(total)
}

// matchTotal sums the lengths of all matching blocks between a[alo:ahi]
// and b[blo:bhi], recursing around the longest match the way difference
// engines do.
func matchTotal(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchTotal(a, b, alo, i, blo, j) +
		matchTotal(a, b, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest matching block between a[alo:ahi] and
// b[blo:bhi], preferring the earliest on ties.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int, bhi-blo)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

// titleMatch pairs a candidate title with its similarity score.
type titleMatch struct {
	title string
	score float64
	index int
}

// ClosestTitles returns up to n titles from candidates whose similarity to
// target is at least cutoff, best first. Ties keep the candidates' original
// order.
func ClosestTitles(target string, candidates []string, n int, cutoff float64) []string {
	var matches []titleMatch
	for i, c := range candidates {
		if score := Ratio(target, c); score >= cutoff {
			matches = append(matches, titleMatch{title: c, score: score, index: i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	titles := make([]string, len(matches))
	for i, m := range matches {
		titles[i] = m.title
	}
	return titles
}
