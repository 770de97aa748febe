package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/autofill-agent/internal/types"
)

func TestAttributeIndexRepeaterSignature(t *testing.T) {
	svc := NewService()

	res, ok := svc.ResolveIndex(types.Field{Name: "jobs-1--title"}, types.SectionWork)
	require.True(t, ok)
	assert.Equal(t, TierRepeater, res.Tier)
	// First-seen raw id maps to logical 0
	assert.Equal(t, 0, res.Index)

	res, ok = svc.ResolveIndex(types.Field{Name: "jobs-3--title"}, types.SectionWork)
	require.True(t, ok)
	assert.Equal(t, 1, res.Index)
	assert.True(t, res.Remapped)
}

func TestAttributeIndexSimplePatterns(t *testing.T) {
	tests := []struct {
		name string
		attr string
		want int
	}{
		{"suffix", "employer-0", 0},
		{"array", "experience[1]", 1},
		{"infix", "edu_2_school", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, tier, ok := attributeIndex(types.Field{Name: tt.attr})
			require.True(t, ok)
			assert.Equal(t, tt.want, raw)
			assert.Equal(t, TierAttribute, tier)
		})
	}
}

func TestUUIDGuardRejectsEmbeddedDigits(t *testing.T) {
	// Digits inside a long opaque identifier are not indices.
	_, _, ok := attributeIndex(types.Field{ID: "f47ac10b_58cc_4372a567_0e02b2c3d479abcd"})
	assert.False(t, ok)

	// A short trailing suffix on an opaque id still counts.
	raw, _, ok := attributeIndex(types.Field{ID: "f47ac10b58cc4372a5670e02b2c3d479-1"})
	require.True(t, ok)
	assert.Equal(t, 1, raw)
}

func TestLabelOrdinalKeywords(t *testing.T) {
	svc := NewService()
	tests := []struct {
		label string
		want  int
	}{
		{"Current Employer", 0},
		{"Previous Employer", 1},
		{"Third Position", 2},
		{"Job #2", 1},
		{"Employer No. 3", 2},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			res, ok := svc.ResolveIndex(types.Field{Label: tt.label}, types.SectionWork)
			require.True(t, ok)
			assert.Equal(t, tt.want, res.Index)
			assert.Equal(t, TierLabel, res.Tier)
		})
	}
}

func TestPhantomGuard(t *testing.T) {
	svc := NewService()

	// An isolated non-start field before any section start gets no index.
	_, ok := svc.ResolveIndex(types.Field{Label: "Job Title", Name: "title"}, types.SectionWork)
	assert.False(t, ok)

	// A start field establishes the section and gets the counter value.
	res, ok := svc.ResolveIndex(types.Field{Label: "Company Name", Name: "company"}, types.SectionWork)
	require.True(t, ok)
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, TierSequential, res.Tier)

	// Subsequent fields follow the counter.
	res, ok = svc.ResolveIndex(types.Field{Label: "Job Title", Name: "title"}, types.SectionWork)
	require.True(t, ok)
	assert.Equal(t, 0, res.Index)
}

func TestIndexMonotonicityAcrossTwoBlocks(t *testing.T) {
	// Two job blocks with random large raw ids must still come out as
	// logical indices 0 and 1.
	svc := NewService()

	companyA := types.Field{Label: "Company Name", Name: "employer-37"}
	titleA := types.Field{Label: "Job Title", Name: "title-37"}
	companyB := types.Field{Label: "Company Name", Name: "employer-4"}
	titleB := types.Field{Label: "Job Title", Name: "title-4"}

	resA, ok := svc.ResolveIndex(companyA, types.SectionWork)
	require.True(t, ok)
	resA2, ok := svc.ResolveIndex(titleA, types.SectionWork)
	require.True(t, ok)
	resB, ok := svc.ResolveIndex(companyB, types.SectionWork)
	require.True(t, ok)
	resB2, ok := svc.ResolveIndex(titleB, types.SectionWork)
	require.True(t, ok)

	assert.Equal(t, 0, resA.Index)
	assert.Equal(t, 0, resA2.Index)
	assert.Equal(t, 1, resB.Index)
	assert.Equal(t, 1, resB2.Index)
}

func TestRogueIDSuppression(t *testing.T) {
	svc := NewService()

	// A single stray large raw id before any section start must not mint
	// a new logical index; it folds into the active one.
	res, ok := svc.ResolveIndex(types.Field{Label: "Job Title", Name: "field-42"}, types.SectionWork)
	require.True(t, ok)
	assert.Equal(t, 0, res.Index)
}

func TestSequentialFallbackWithCounter(t *testing.T) {
	svc := NewService()

	_, ok := svc.ResolveIndex(types.Field{Label: "Company Name"}, types.SectionWork)
	require.True(t, ok)

	svc.IncrementCounter(types.SectionWork)

	res, ok := svc.ResolveIndex(types.Field{Label: "Company Name"}, types.SectionWork)
	require.True(t, ok)
	assert.Equal(t, 1, res.Index)
}

func TestAtomicMultiExcluded(t *testing.T) {
	svc := NewService()
	_, ok := svc.ResolveIndex(types.Field{Label: "Company Name", AtomicMulti: true}, types.SectionWork)
	assert.False(t, ok)
}

func TestResetClearsState(t *testing.T) {
	svc := NewService()
	_, ok := svc.ResolveIndex(types.Field{Label: "Company Name"}, types.SectionWork)
	require.True(t, ok)
	svc.IncrementCounter(types.SectionWork)
	require.Equal(t, 1, svc.Counter(types.SectionWork))

	svc.Reset()
	assert.Equal(t, 0, svc.Counter(types.SectionWork))
	_, ok = svc.ResolveIndex(types.Field{Label: "Job Title"}, types.SectionWork)
	assert.False(t, ok, "phantom guard must be re-armed after reset")
}
