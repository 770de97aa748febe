// Package memory provides the two learned-answer caches: a cross-site
// global fact cache keyed by normalized label, and a per-site interaction
// log keyed by selector and cache label.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/autofill-agent/internal/matching"
	"github.com/jonathan/autofill-agent/internal/storage"
	"github.com/jonathan/autofill-agent/internal/types"
)

// GlobalKey is the storage key for the cross-site fact cache.
const GlobalKey = "autofill:global_memory"

// fuzzyLookupThreshold is the minimum hybrid score for a fuzzy key match
// to be returned from the global cache.
const fuzzyLookupThreshold = 0.75

// Entry is one learned fact.
type Entry struct {
	Value    string    `json:"value"`
	LastUsed time.Time `json:"last_used"`
	UseCount int       `json:"use_count"`
	Source   string    `json:"source,omitempty"`
}

// Hit is a successful cache lookup.
type Hit struct {
	Value      string
	Confidence float64
	Key        string
}

// GlobalMemory caches answers across sites, keyed by normalized label.
// Writes are read-modify-write against the latest persisted state so
// concurrent tab-level writes to the same storage key are merged rather
// than clobbered.
type GlobalMemory struct {
	kv      storage.Store
	entries map[string]Entry
	now     func() time.Time
}

// LoadGlobal reads the persisted global cache, starting empty when none exists.
func LoadGlobal(ctx context.Context, kv storage.Store) (*GlobalMemory, error) {
	g := &GlobalMemory{kv: kv, entries: make(map[string]Entry), now: time.Now}
	if kv != nil {
		if _, err := storage.GetJSON(ctx, kv, GlobalKey, &g.entries); err != nil {
			return nil, fmt.Errorf("failed to load global memory: %w", err)
		}
	}
	return g, nil
}

// Lookup finds an answer for a label: exact normalized-key match first,
// then the best fuzzy key match above the lookup threshold. Fuzzy hits
// carry the similarity score as confidence.
func (g *GlobalMemory) Lookup(label string) (Hit, bool) {
	key := matching.CacheKey(label, "", "")
	if key == "" {
		return Hit{}, false
	}
	if entry, ok := g.entries[key]; ok {
		return Hit{Value: entry.Value, Confidence: types.ConfidenceExact, Key: key}, true
	}

	bestKey, bestScore := "", 0.0
	for candidate := range g.entries {
		if score := matching.HybridScore(key, candidate); score > bestScore {
			bestKey, bestScore = candidate, score
		}
	}
	if bestScore < fuzzyLookupThreshold {
		return Hit{}, false
	}
	return Hit{Value: g.entries[bestKey].Value, Confidence: bestScore, Key: bestKey}, true
}

// Remember stores an answer under the label's normalized key. Keys that
// fail the quality filters are dropped; existing entries keep their use
// count running.
func (g *GlobalMemory) Remember(ctx context.Context, label, value, source string) error {
	key := matching.CacheKey(label, "", "")
	if key == "" || value == "" {
		return nil
	}
	return g.RememberKey(ctx, key, value, source)
}

// RememberKey stores an answer under a pre-computed cache key.
func (g *GlobalMemory) RememberKey(ctx context.Context, key, value, source string) error {
	if !matching.IsCacheableKey(key) || value == "" {
		return nil
	}

	// Merge with the latest persisted state before writing.
	if g.kv != nil {
		persisted := make(map[string]Entry)
		if found, err := storage.GetJSON(ctx, g.kv, GlobalKey, &persisted); err == nil && found {
			for k, v := range persisted {
				if _, known := g.entries[k]; !known {
					g.entries[k] = v
				}
			}
		}
	}

	entry := g.entries[key]
	entry.Value = value
	entry.Source = source
	entry.UseCount++
	entry.LastUsed = g.now().UTC()
	g.entries[key] = entry

	if g.kv == nil {
		return nil
	}
	if err := g.kv.Set(ctx, GlobalKey, g.entries); err != nil {
		return fmt.Errorf("failed to persist global memory: %w", err)
	}
	return nil
}

// Len returns the number of cached facts.
func (g *GlobalMemory) Len() int {
	return len(g.entries)
}
