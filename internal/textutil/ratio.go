package textutil

import (
	"sort"
	"strings"
)

// TokenSortRatio computes a similarity ratio in [0,100] between the
// normalized token-sorted forms of a and b. Sorting tokens first makes the
// ratio insensitive to word order ("Creed Assassins" vs "Assassins Creed").
func TokenSortRatio(a, b string) int {
	return simpleRatio(tokenSorted(a), tokenSorted(b))
}

// PartialRatio computes the best similarity ratio in [0,100] between the
// shorter of the two normalized strings and any equally long window of the
// longer one. Used to credit strict-superset titles ("Doom" vs "Doom 2016").
func PartialRatio(a, b string) int {
	na := []rune(Normalize(a))
	nb := []rune(Normalize(b))
	if len(na) == 0 && len(nb) == 0 {
		return 100
	}
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}
	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0
	for offset := 0; offset+len(shorter) <= len(longer); offset++ {
		window := longer[offset : offset+len(shorter)]
		score := runeRatio(shorter, window)
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

func tokenSorted(s string) []rune {
	tokens := Tokens(s)
	sort.Strings(tokens)
	return []rune(strings.Join(tokens, " "))
}

func simpleRatio(a, b []rune) int {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	return runeRatio(a, b)
}

// runeRatio is the normalized indel similarity: 100 * (1 - D/(la+lb)) where
// D is the minimum number of insertions and deletions transforming a into b.
// D = la + lb - 2*LCS(a, b).
func runeRatio(a, b []rune) int {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	lcs := lcsLength(a, b)
	return (2*lcs*100 + total/2) / total
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
