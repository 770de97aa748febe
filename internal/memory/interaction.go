package memory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonathan/autofill-agent/internal/storage"
	"github.com/jonathan/autofill-agent/internal/types"
)

// InteractionKey is the storage key for the per-site interaction log.
const InteractionKey = "autofill:interaction_log"

// InteractionEntry is one remembered fill for a specific control.
type InteractionEntry struct {
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	LastUsed   time.Time `json:"last_used"`
	UseCount   int       `json:"use_count"`
}

// InteractionLog remembers answers for concrete controls, keyed three
// ways with decreasing specificity: by DOM selector, by cache label plus
// instance index, and by cache label alone.
type InteractionLog struct {
	kv      storage.Store
	entries map[string]InteractionEntry
	now     func() time.Time
}

// LoadInteractions reads the persisted interaction log, starting empty
// when none exists.
func LoadInteractions(ctx context.Context, kv storage.Store) (*InteractionLog, error) {
	l := &InteractionLog{kv: kv, entries: make(map[string]InteractionEntry), now: time.Now}
	if kv != nil {
		if _, err := storage.GetJSON(ctx, kv, InteractionKey, &l.entries); err != nil {
			return nil, fmt.Errorf("failed to load interaction log: %w", err)
		}
	}
	return l, nil
}

// Lookup finds a remembered answer for a field, trying the selector key,
// then the instance-aware label key, then the bare label key.
func (l *InteractionLog) Lookup(f types.Field) (Hit, bool) {
	for _, key := range lookupKeys(f) {
		if entry, ok := l.entries[key]; ok {
			return Hit{Value: entry.Answer, Confidence: entry.Confidence, Key: key}, true
		}
	}
	return Hit{}, false
}

// Record remembers a successful fill under all applicable keys for the
// field, merging use counts with existing entries.
func (l *InteractionLog) Record(ctx context.Context, f types.Field, value string, confidence float64, source types.Source) error {
	if value == "" {
		return nil
	}

	if l.kv != nil {
		persisted := make(map[string]InteractionEntry)
		if found, err := storage.GetJSON(ctx, l.kv, InteractionKey, &persisted); err == nil && found {
			for k, v := range persisted {
				if _, known := l.entries[k]; !known {
					l.entries[k] = v
				}
			}
		}
	}

	for _, key := range lookupKeys(f) {
		entry := l.entries[key]
		entry.Answer = value
		entry.Confidence = confidence
		entry.Source = string(source)
		entry.UseCount++
		entry.LastUsed = l.now().UTC()
		l.entries[key] = entry
	}

	if l.kv == nil {
		return nil
	}
	if err := l.kv.Set(ctx, InteractionKey, l.entries); err != nil {
		return fmt.Errorf("failed to persist interaction log: %w", err)
	}
	return nil
}

// lookupKeys builds the candidate keys for a field, most specific first.
func lookupKeys(f types.Field) []string {
	keys := make([]string, 0, 3)
	if f.Selector != "" {
		keys = append(keys, "sel:"+f.Selector)
	}
	if f.CacheLabel != "" {
		if idx, ok := f.Index(); ok {
			keys = append(keys, "lbl:"+f.CacheLabel+"#"+strconv.Itoa(idx))
		}
		keys = append(keys, "lbl:"+f.CacheLabel)
	}
	return keys
}
