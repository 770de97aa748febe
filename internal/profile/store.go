// Package profile provides the persisted entity store: ordered lists of
// work and education records addressable by type and index, with
// validated learning-by-upsert.
package profile

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/autofill-agent/internal/storage"
	"github.com/jonathan/autofill-agent/internal/types"
)

// StorageKey is the key under which the profile document is persisted.
const StorageKey = "autofill:profile"

const minPrimaryKeyLength = 2

// hallucinationPattern rejects placeholder values that AI layers or bad
// scrapes produce instead of real employer/institution names. Persisting
// these would poison indexed lookups for every later scan.
var hallucinationPattern = regexp.MustCompile(`(?i)^\s*(see\s+resume|n/?a|not\s+applicable|none|unknown|various|multiple|tbd|test|sample|placeholder|lorem|asdf|xxx+|company\s*name|employer|school\s*name)\s*$`)

// primaryKeyAttrs names the attribute that must validate before an
// entity of each type is persisted.
var primaryKeyAttrs = map[types.SectionType][]string{
	types.SectionWork:      {"employer_name", "company_name", "name", "company", "employer"},
	types.SectionEducation: {"institution_name", "school_name", "name", "school", "institution"},
}

// ValidationError reports a rejected entity upsert. The rejection is
// local: callers log it and continue, nothing is persisted.
type ValidationError struct {
	Type   types.SectionType
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s entity: %s", e.Type, e.Reason)
}

// Store holds the in-memory profile, the session source of truth, and
// flushes every mutation through to the storage collaborator.
type Store struct {
	kv      storage.Store
	profile *types.Profile
	now     func() time.Time
}

// NewStore creates a Store around an existing profile. Pass nil to start
// from an empty profile.
func NewStore(kv storage.Store, p *types.Profile) *Store {
	if p == nil {
		p = &types.Profile{}
	}
	return &Store{kv: kv, profile: p, now: time.Now}
}

// Load reads the persisted profile from storage, falling back to an
// empty profile when none exists.
func Load(ctx context.Context, kv storage.Store) (*Store, error) {
	p := &types.Profile{}
	if kv != nil {
		if _, err := storage.GetJSON(ctx, kv, StorageKey, p); err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}
	return NewStore(kv, p), nil
}

// Profile returns the live profile document.
func (s *Store) Profile() *types.Profile {
	return s.profile
}

// GetByIndex returns the entity at list position index for the type, or
// nil when the index is out of range.
func (s *Store) GetByIndex(t types.SectionType, index int) types.Entity {
	entities := s.profile.Entities(t)
	if index < 0 || index >= len(entities) {
		return nil
	}
	return entities[index]
}

// UpsertSkill appends a skill string unless an existing entry already
// contains it (case-insensitive, either direction).
func (s *Store) UpsertSkill(ctx context.Context, skill string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil
	}
	for _, existing := range s.profile.Skills {
		if containsEither(existing, skill) {
			return nil
		}
	}
	s.profile.Skills = append(s.profile.Skills, skill)
	return s.flush(ctx)
}

// UpsertEntity validates, merges, or appends a work/education record.
// The primary-key attribute must be a non-empty string of length >= 2
// that does not match the hallucination blacklist; otherwise the upsert
// is rejected with a ValidationError and nothing is persisted. A new
// record fuzzy-matching an existing entity's primary key (substring in
// either direction) is shallow-merged into it.
func (s *Store) UpsertEntity(ctx context.Context, t types.SectionType, data types.Entity) error {
	keys, ok := primaryKeyAttrs[t]
	if !ok {
		return &ValidationError{Type: t, Reason: "unsupported entity type"}
	}
	primary := strings.TrimSpace(data.StringAttr(keys...))
	if len(primary) < minPrimaryKeyLength {
		err := &ValidationError{Type: t, Reason: "primary key missing or too short"}
		log.Printf("[PROFILE] rejected upsert: %v", err)
		return err
	}
	if hallucinationPattern.MatchString(primary) {
		err := &ValidationError{Type: t, Reason: fmt.Sprintf("primary key %q matches placeholder blacklist", primary)}
		log.Printf("[PROFILE] rejected upsert: %v", err)
		return err
	}

	now := s.now().UTC()
	entities := s.profile.Entities(t)
	for _, existing := range entities {
		existingKey := existing.StringAttr(keys...)
		if existingKey == "" || !containsEither(existingKey, primary) {
			continue
		}
		mergeEntity(existing, data)
		existing.Touch(now)
		return s.flush(ctx)
	}

	fresh := types.Entity{}
	mergeEntity(fresh, data)
	fresh[types.AttrCreated] = now.Format(time.RFC3339)
	fresh.Touch(now)

	switch t {
	case types.SectionWork:
		s.profile.Work = append(s.profile.Work, fresh)
	case types.SectionEducation:
		s.profile.Education = append(s.profile.Education, fresh)
	}
	return s.flush(ctx)
}

// Flush persists the current profile. Mutating operations call this
// automatically; it is exported for callers that edit the profile
// document directly.
func (s *Store) Flush(ctx context.Context) error {
	return s.flush(ctx)
}

func (s *Store) flush(ctx context.Context) error {
	s.profile.Updated = s.now().UTC().Format(time.RFC3339)
	if s.kv == nil {
		return nil
	}
	if err := s.kv.Set(ctx, StorageKey, s.profile); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

// mergeEntity shallow-merges non-empty source attributes into dest,
// skipping bookkeeping keys.
func mergeEntity(dest, src types.Entity) {
	for key, value := range src {
		if key == types.AttrCreated || key == types.AttrLastUsed {
			continue
		}
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				dest[key] = v
			}
		case []string:
			if len(v) > 0 {
				dest[key] = v
			}
		case []any:
			if len(v) > 0 {
				dest[key] = v
			}
		default:
			if value != nil {
				dest[key] = value
			}
		}
	}
}

func containsEither(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
