package matching

import (
	"strings"
	"unicode"
)

const (
	// maxKeyTokens caps the number of tokens in a generated cache key
	maxKeyTokens = 4
	// minKeyLength is the shortest key accepted into any cache
	minKeyLength = 3
	// maxDigitRatio rejects number-heavy keys (generated ids, timestamps)
	maxDigitRatio = 0.3
)

// stopwords are filler tokens stripped from generated cache keys so that
// "Please enter your first name" and "First Name" produce the same key.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "your": true, "please": true,
	"enter": true, "select": true, "choose": true, "provide": true,
	"of": true, "in": true, "on": true, "for": true, "to": true,
	"is": true, "are": true, "do": true, "you": true, "what": true,
	"which": true, "if": true, "any": true, "required": true,
	"optional": true, "this": true, "field": true,
}

// placeholderKeys are generic single words that would pollute the cache
// if used as lookup keys.
var placeholderKeys = map[string]bool{
	"field": true, "input": true, "text": true, "value": true,
	"question": true, "answer": true, "option": true, "select": true,
	"item": true, "other": true, "label": true, "form": true,
	"untitled": true, "unknown": true,
}

// CacheKey derives a deterministic, normalized multi-token key from a
// field's label, name, and surrounding context. Identical input always
// yields the identical key.
func CacheKey(label, name, context string) string {
	for _, source := range []string{label, name, context} {
		key := keyFrom(source)
		if key != "" {
			return key
		}
	}
	return ""
}

func keyFrom(source string) string {
	tokens := Tokens(source)
	kept := make([]string, 0, maxKeyTokens)
	for _, tok := range tokens {
		if stopwords[tok] || len(tok) < 2 {
			continue
		}
		if digitRatio(tok) > maxDigitRatio {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == maxKeyTokens {
			break
		}
	}
	key := strings.Join(kept, "_")
	if !IsCacheableKey(key) {
		return ""
	}
	return key
}

// IsCacheableKey applies the cache key quality filters: minimum length,
// not a generic placeholder word, not number-heavy.
func IsCacheableKey(key string) bool {
	if len(key) < minKeyLength {
		return false
	}
	if placeholderKeys[key] {
		return false
	}
	return digitRatio(key) <= maxDigitRatio
}

func digitRatio(s string) float64 {
	if s == "" {
		return 0
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len(s))
}
