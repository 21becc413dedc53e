package schema

import "strings"

// Similarity scores how alike two column names are, in [0, 1].
type Similarity interface {
	Ratio(a, b string) float64
}

// SequenceMatcher scores names with the classic matching-blocks ratio:
// 2*M/T where M is the total length of all matching blocks and T the
// combined length of both strings. Equal strings score 1, disjoint 0.
type SequenceMatcher struct{}

func (SequenceMatcher) Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	t := len(ra) + len(rb)
	if t == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingTotal(ra, rb)) / float64(t)
}

type matchBlock struct {
	a, b, size int
}

type matchSpan struct {
	alo, ahi, blo, bhi int
}

// matchingTotal sums the lengths of all matching blocks: the longest match
// is found first, then the regions before and after it are matched
// recursively.
func matchingTotal(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, c := range b {
		b2j[c] = append(b2j[c], j)
	}

	total := 0
	queue := []matchSpan{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		m := longestMatch(a, b2j, s)
		if m.size == 0 {
			continue
		}
		total += m.size
		if s.alo < m.a && s.blo < m.b {
			queue = append(queue, matchSpan{s.alo, m.a, s.blo, m.b})
		}
		if m.a+m.size < s.ahi && m.b+m.size < s.bhi {
			queue = append(queue, matchSpan{m.a + m.size, s.ahi, m.b + m.size, s.bhi})
		}
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the
// span, preferring the earliest such block on ties.
func longestMatch(a []rune, b2j map[rune][]int, s matchSpan) matchBlock {
	best := matchBlock{s.alo, s.blo, 0}
	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		newJ2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > best.size {
				best = matchBlock{i - k + 1, j - k + 1, k}
			}
		}
		j2len = newJ2len
	}
	return best
}

// Levenshtein scores names by edit distance: 1 - distance/maxLen on the
// lowercased strings.
type Levenshtein struct{}

func (Levenshtein) Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	len1, len2 := len(r1), len(r2)

	row := make([]int, len2+1)
	for i := 0; i <= len2; i++ {
		row[i] = i
	}

	for i := 1; i <= len1; i++ {
		prev := i
		for j := 1; j <= len2; j++ {
			val := row[j]
			if r1[i-1] == r2[j-1] {
				val = row[j-1]
			} else {
				val = minOf3(row[j-1]+1, prev+1, row[j]+1)
			}
			row[j-1] = prev
			prev = val
		}
		row[len2] = prev
	}
	return row[len2]
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// TrigramJaccard scores names by Jaccard overlap of character 3-grams.
// Coarser than sequence matching but robust to token reordering.
type TrigramJaccard struct{}

func (TrigramJaccard) Ratio(a, b string) float64 {
	set1 := trigramSet(a)
	set2 := trigramSet(b)

	intersection := 0
	for g := range set1 {
		if set2[g] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func trigramSet(s string) map[string]bool {
	s = strings.ToLower(s)
	set := map[string]bool{}
	if len(s) < 3 {
		if s != "" {
			set[s] = true
		}
		return set
	}
	for i := 0; i+3 <= len(s); i++ {
		set[s[i:i+3]] = true
	}
	return set
}

// NewSimilarity returns the named scoring strategy. Unknown names fall back
// to sequence matching.
func NewSimilarity(name string) Similarity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "levenshtein":
		return Levenshtein{}
	case "trigram":
		return TrigramJaccard{}
	default:
		return SequenceMatcher{}
	}
}
