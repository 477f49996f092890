package textutil

import "math"

// perfectRatio short-circuits the window scan once an alignment is
// effectively identical.
const perfectRatio = 0.995

// Ratio returns the indel similarity of a and b in [0, 1]:
// 2*LCS(a, b) / (len(a) + len(b)). Two empty strings are identical.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

// PartialRatio scores a and b on a 0–100 scale by aligning the shorter string
// against every window of the longer string with the same length and keeping
// the best Ratio. An empty input scores 0.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}

	best := 0.0
	for start := 0; start+len(short) <= len(long); start++ {
		r := ratio(short, long[start:start+len(short)])
		if r > best {
			best = r
			if best > perfectRatio {
				return 100
			}
		}
	}
	return int(math.RoundToEven(best * 100))
}

// Score normalizes both values and returns their PartialRatio.
func Score(a, b string) int {
	return PartialRatio(Normalize(a), Normalize(b))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(lcsLength(a, b)) / float64(total)
}

// lcsLength computes the longest common subsequence length with two rolling
// rows.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
