// Package indexing assigns 0-based instance indices to form fields so
// that repeated sections (multiple jobs or schools) are tracked as
// separate instances. Index resolution combines explicit markup
// signatures, a raw-to-logical remap table, label ordinal keywords, and a
// sequential fallback.
package indexing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/autofill-agent/internal/types"
)

// Confidence tiers for an index resolution, highest first. Callers use
// the tier to decide how much to trust the assignment.
const (
	// TierRepeater is an explicit double-separator repeater signature in
	// the field's name or id (the BEM/ATS convention, e.g. "job-0--title").
	TierRepeater = 3
	// TierAttribute is a simpler suffix/array/infix numeric pattern.
	TierAttribute = 2
	// TierLabel is an ordinal keyword in the question text.
	TierLabel = 1
	// TierSequential is the positional fallback counter.
	TierSequential = 0
)

const (
	// opaqueIDLength marks name/id strings long enough to be UUID-like
	// generated identifiers, whose embedded digits are not indices.
	opaqueIDLength = 25
	// maxTrailingSuffix is the longest trailing "-N" fragment still
	// accepted on an otherwise opaque identifier.
	maxTrailingSuffix = 20
	// rogueIDFloor is the raw index value above which a discovered id is
	// treated as a stray markup artifact when no section start has been
	// seen for the type.
	rogueIDFloor = 10
)

var (
	repeaterPattern = regexp.MustCompile(`(?i)[a-z][a-z0-9]*[-_](\d+)[-_]{2}[a-z]`)
	suffixPattern   = regexp.MustCompile(`[-_](\d+)$`)
	arrayPattern    = regexp.MustCompile(`\[(\d+)\]`)
	infixPattern    = regexp.MustCompile(`_(\d+)_`)

	ordinalHashPattern = regexp.MustCompile(`(?i)(?:#|no\.?\s*|number\s*|\b)(\d+)\s*$`)
)

// ordinalWords maps explicit ordinal keywords in a label to an index.
var ordinalWords = []struct {
	words []string
	index int
}{
	{[]string{"primary", "first", "current", "latest", "most recent"}, 0},
	{[]string{"secondary", "second", "previous", "former", "prior"}, 1},
	{[]string{"tertiary", "third"}, 2},
}

// workStartKeywords and eduStartKeywords identify section-start fields:
// the first field of a new repeating block.
var (
	workStartKeywords = []string{"company", "employer", "organization", "organisation"}
	eduStartKeywords  = []string{"school", "university", "college", "institution"}
)

// Result is one index resolution with its confidence tier.
type Result struct {
	Index    int
	Tier     int
	Remapped bool
}

// Service resolves instance indices. Its counters and remap tables are
// mutable per-scan state and must be reset at the start of each form scan.
type Service struct {
	counters  map[types.SectionType]int
	remap     map[types.SectionType]map[int]int
	startSeen map[types.SectionType]bool
}

// NewService creates a Service with empty scan state.
func NewService() *Service {
	s := &Service{}
	s.Reset()
	return s
}

// Reset clears counters, remap tables, and section-start tracking.
// Called at the start of each form scan.
func (s *Service) Reset() {
	s.counters = make(map[types.SectionType]int)
	s.remap = make(map[types.SectionType]map[int]int)
	s.startSeen = make(map[types.SectionType]bool)
}

// Counter returns the current sequential counter for a section type.
func (s *Service) Counter(t types.SectionType) int {
	return s.counters[t]
}

// IncrementCounter advances the sequential counter for a type. The caller
// invokes this when a new section-start field is detected (a second
// "Company Name" appearing after the first).
func (s *Service) IncrementCounter(t types.SectionType) {
	s.counters[t]++
}

// ResolveIndex maps a field to its instance index within sectionType.
// It returns ok=false when the field should not carry an index at all:
// survey-style multi-selects, and isolated fields before any section
// start has been seen (the phantom guard).
func (s *Service) ResolveIndex(f types.Field, sectionType types.SectionType) (Result, bool) {
	if f.AtomicMulti || f.Classification == types.LabelAtomicMulti {
		return Result{}, false
	}
	if sectionType == types.SectionNone {
		return Result{}, false
	}
	if IsStartField(f, sectionType) {
		s.startSeen[sectionType] = true
	}

	if raw, tier, ok := attributeIndex(f); ok {
		logical, remapped := s.logicalIndex(sectionType, raw)
		return Result{Index: logical, Tier: tier, Remapped: remapped}, true
	}

	if idx, ok := labelIndex(f.Label); ok {
		return Result{Index: idx, Tier: TierLabel}, true
	}

	return s.sequentialIndex(f, sectionType)
}

// attributeIndex extracts a raw index from the field's name or id.
func attributeIndex(f types.Field) (raw, tier int, ok bool) {
	for _, attr := range []string{f.Name, f.ID} {
		if attr == "" {
			continue
		}
		if m := repeaterPattern.FindStringSubmatch(attr); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, TierRepeater, true
			}
		}
	}
	for _, attr := range []string{f.Name, f.ID} {
		if attr == "" {
			continue
		}
		if n, ok := simpleAttributeIndex(attr); ok {
			return n, TierAttribute, true
		}
	}
	return 0, 0, false
}

// simpleAttributeIndex matches suffix/array/infix numeric patterns,
// guarded against digits embedded in long opaque identifiers: on a
// UUID-like string only a short trailing "-N" suffix counts.
func simpleAttributeIndex(attr string) (int, bool) {
	opaque := len(attr) >= opaqueIDLength

	if m := suffixPattern.FindStringSubmatch(attr); m != nil {
		if !opaque || len(m[0]) < maxTrailingSuffix {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	if opaque {
		return 0, false
	}
	if m := arrayPattern.FindStringSubmatch(attr); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	if m := infixPattern.FindStringSubmatch(attr); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// logicalIndex translates a raw markup index into a logical 0-based
// index via the per-type remap table: first-seen raw id becomes 0, the
// second-seen becomes 1, stable for the session. A numerically large raw
// id discovered before any section start is forced into the currently
// active logical index rather than minting a new one, so one stray id
// cannot fragment a section into two.
func (s *Service) logicalIndex(t types.SectionType, raw int) (int, bool) {
	table, ok := s.remap[t]
	if !ok {
		table = make(map[int]int)
		s.remap[t] = table
	}
	if logical, seen := table[raw]; seen {
		return logical, logical != raw
	}

	var logical int
	if raw > rogueIDFloor && !s.startSeen[t] {
		logical = s.counters[t]
	} else {
		logical = len(table)
	}
	table[raw] = logical
	return logical, logical != raw
}

// labelIndex ranks explicit ordinal keywords in the question text.
func labelIndex(label string) (int, bool) {
	if label == "" {
		return 0, false
	}
	lower := strings.ToLower(label)

	if m := ordinalHashPattern.FindStringSubmatch(lower); m != nil {
		if hasOrdinalContext(lower) {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
				return n - 1, true
			}
		}
	}
	for _, entry := range ordinalWords {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.index, true
			}
		}
	}
	return 0, false
}

// hasOrdinalContext restricts "Job #2"-style parsing to labels that talk
// about a section entry, not arbitrary numbered questions.
func hasOrdinalContext(lower string) bool {
	for _, word := range append(append([]string{"job", "position", "role", "degree"}, workStartKeywords...), eduStartKeywords...) {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// sequentialIndex is the tier-0 fallback: return the running counter, but
// only once a section start has been observed for the type. Isolated
// fields seen before any start field get no index at all, preventing
// unrelated fields from being misattributed to section 0.
func (s *Service) sequentialIndex(f types.Field, t types.SectionType) (Result, bool) {
	if s.counters[t] > 0 || s.startSeen[t] {
		return Result{Index: s.counters[t], Tier: TierSequential}, true
	}
	return Result{}, false
}

// IsStartField reports whether a field opens a new section instance for
// the type (a company/employer field for work, a school/institution field
// for education).
func IsStartField(f types.Field, t types.SectionType) bool {
	ctx := strings.ToLower(f.Context())
	var keywords []string
	switch t {
	case types.SectionWork:
		keywords = workStartKeywords
	case types.SectionEducation:
		keywords = eduStartKeywords
	default:
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(ctx, kw) {
			return true
		}
	}
	return false
}
