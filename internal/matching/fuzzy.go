// Package matching provides the approximate string comparison primitives
// shared by the rule engine, section controller, composite manager, and
// global memory: a hybrid fuzzy score combining substring containment,
// token-set overlap, and edit distance.
package matching

import (
	"regexp"
	"strings"
)

const (
	// containmentScore is awarded when one normalized string contains the other
	containmentScore = 0.95
	// jaccardThreshold is the minimum token-set overlap accepted before
	// falling through to edit distance
	jaccardThreshold = 0.7
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases a label and collapses all punctuation and
// whitespace runs to single spaces.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits a string into normalized tokens.
func Tokens(s string) []string {
	norm := Normalize(s)
	if norm == "" {
		return nil
	}
	return strings.Fields(norm)
}

// HybridScore computes a similarity score in [0,1] between two strings.
// Containment scores 0.95; otherwise token-set Jaccard overlap is used if
// it exceeds 0.7; otherwise a character-level Levenshtein-derived
// similarity (maxLen-editDistance)/maxLen.
func HybridScore(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return containmentScore
	}
	if j := jaccard(Tokens(na), Tokens(nb)); j > jaccardThreshold {
		return j
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	dist := Levenshtein(na, nb)
	return float64(maxLen-dist) / float64(maxLen)
}

// BestOption returns the option with the highest hybrid score against the
// target value, along with that score. Callers apply their own acceptance
// threshold.
func BestOption(value string, options []string) (string, float64) {
	best, bestScore := "", 0.0
	for _, opt := range options {
		if score := HybridScore(value, opt); score > bestScore {
			best, bestScore = opt, score
		}
	}
	return best, bestScore
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, tok := range a {
		set[tok] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, tok := range b {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if set[tok] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// Levenshtein computes the character-level edit distance between two strings.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
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
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
