package match

// Distance returns the optimal string alignment distance between a and b:
// the number of rune insertions, deletions, substitutions and adjacent
// transpositions needed to turn one into the other.
func Distance(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}

	if len(rb) == 0 {
		return len(ra)
	}

	// Three rolling rows: the transposition case looks two rows back.
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			d := min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)

			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d = min(d, prev2[j-2]+1)
			}

			curr[j] = d
		}

		prev2, prev, curr = prev, curr, prev2
	}

	return prev[len(rb)]
}

// Similarity maps Distance onto [0, 1]; 1 means equal.
func Similarity(a, b string) float64 {
	n := max(len([]rune(a)), len([]rune(b)))
	if n == 0 {
		return 1
	}

	return 1 - float64(Distance(a, b))/float64(n)
}

// Score is the Similarity of the folded names, so "t_meas" and "tMeas"
// score 1.
func Score(a, b string) float64 {
	return Similarity(Fold(a), Fold(b))
}
