package textsearch

// levenshtein computes the edit distance between two strings using the
// classic two-row dynamic program.
func levenshtein(s1, s2 string) int {
	if len(s1) < len(s2) {
		s1, s2 = s2, s1
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 0; i < len(s1); i++ {
		curr[0] = i + 1
		for j := 0; j < len(s2); j++ {
			cost := 1
			if s1[i] == s2[j] {
				cost = 0
			}
			curr[j+1] = minInt(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
