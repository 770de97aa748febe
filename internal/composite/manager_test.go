package composite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/autofill-agent/internal/execution"
	"github.com/jonathan/autofill-agent/internal/memory"
	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/types"
)

func newTestManager(t *testing.T, p *types.Profile) (*Manager, *execution.Recorder) {
	t.Helper()
	ctx := context.Background()
	cache, err := memory.LoadInteractions(ctx, nil)
	require.NoError(t, err)
	global, err := memory.LoadGlobal(ctx, nil)
	require.NoError(t, err)
	rec := execution.NewRecorder()
	return NewManager(profile.NewStore(nil, p), cache, global, rec), rec
}

func TestSkillsMatching(t *testing.T) {
	mgr, rec := newTestManager(t, &types.Profile{
		Skills: []string{"Go", "Kubernetes", "PostgreSQL"},
	})

	fields := []types.Field{{
		Selector:       "#skills",
		Label:          "Which skills do you have?",
		Type:           types.TypeCheckbox,
		Classification: types.LabelSkills,
		Options:        []string{"Kubernetes", "Rust", "PostgreSQL", "COBOL"},
	}}

	results, unresolved := mgr.Resolve(context.Background(), fields)
	require.Empty(t, unresolved)

	res := results["#skills"]
	assert.Equal(t, types.SourceSkillMatch, res.Source)
	assert.True(t, res.SkipExecution, "composite fills the DOM itself")
	assert.ElementsMatch(t, []string{"Kubernetes", "PostgreSQL"}, res.Value)

	require.Len(t, rec.Fills(), 1)
	assert.Contains(t, rec.Fills()[0].Value, "Kubernetes")
	assert.Contains(t, rec.Fills()[0].Value, "PostgreSQL")
	assert.NotContains(t, rec.Fills()[0].Value, "COBOL")
}

func TestEntityAttributeFallback(t *testing.T) {
	mgr, _ := newTestManager(t, &types.Profile{
		Work: []types.Entity{{"employer_name": "Acme", "job_title": "Engineer"}},
	})

	fields := []types.Field{types.Field{
		Selector:       "#title-0",
		Label:          "Job Title",
		Type:           types.TypeText,
		Classification: types.LabelJobTitle,
		SectionType:    types.SectionWork,
	}.WithIndex(0)}

	results, unresolved := mgr.Resolve(context.Background(), fields)
	require.Empty(t, unresolved)
	assert.Equal(t, "Engineer", results["#title-0"].Value)
	assert.Equal(t, types.SourceHistoryMap, results["#title-0"].Source)
}

func TestGlobalMemoryFallback(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &types.Profile{})
	require.NoError(t, mgr.global.RememberKey(ctx, "preferred_pronouns", "she/her", "ai"))

	fields := []types.Field{{
		Selector: "#pronouns",
		Label:    "Preferred Pronouns",
		Type:     types.TypeText,
	}}

	results, unresolved := mgr.Resolve(ctx, fields)
	require.Empty(t, unresolved)
	assert.Equal(t, "she/her", results["#pronouns"].Value)
	assert.Equal(t, types.SourceGlobalMemory, results["#pronouns"].Source)
}

func TestGlobalMemoryUsesCacheLabel(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &types.Profile{})
	require.NoError(t, mgr.global.RememberKey(ctx, "preferred_pronouns", "she/her", "ai"))

	// The deterministic cache label from enrichment drives the lookup,
	// not the raw question text.
	fields := []types.Field{{
		Selector:   "#pronouns",
		Label:      "Optional self identification",
		CacheLabel: "preferred_pronouns",
		Type:       types.TypeText,
	}}

	results, unresolved := mgr.Resolve(ctx, fields)
	require.Empty(t, unresolved)
	assert.Equal(t, "she/her", results["#pronouns"].Value)
	assert.Equal(t, types.SourceGlobalMemory, results["#pronouns"].Source)
}

func TestEntityRemappedIndexConfidence(t *testing.T) {
	mgr, _ := newTestManager(t, &types.Profile{
		Work: []types.Entity{{"employer_name": "Acme", "job_title": "Engineer"}},
	})

	field := types.Field{
		Selector:       "#title-42",
		Type:           types.TypeText,
		Classification: types.LabelJobTitle,
		SectionType:    types.SectionWork,
		IndexRemapped:  true,
	}.WithIndex(0)

	results, unresolved := mgr.Resolve(context.Background(), []types.Field{field})
	require.Empty(t, unresolved)
	assert.Equal(t, "Engineer", results["#title-42"].Value)
	assert.Equal(t, types.ConfidenceRemapped, results["#title-42"].Confidence)
}

func TestAutoCachingAfterResolve(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &types.Profile{
		Work: []types.Entity{{"employer_name": "Acme", "job_title": "Engineer"}},
	})

	field := types.Field{
		Selector:       "#title-0",
		CacheLabel:     "job_title",
		Type:           types.TypeText,
		Classification: types.LabelJobTitle,
		SectionType:    types.SectionWork,
	}.WithIndex(0)

	_, _ = mgr.Resolve(ctx, []types.Field{field})

	hit, ok := mgr.cache.Lookup(field)
	require.True(t, ok, "non-cache success must be written back to the cache")
	assert.Equal(t, "Engineer", hit.Value)
}

func TestCacheShortCircuit(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, &types.Profile{
		Work: []types.Entity{{"employer_name": "Acme", "job_title": "Engineer"}},
	})
	require.NoError(t, mgr.cache.Record(ctx, types.Field{Selector: "#title-0"}, "Staff Engineer", 0.9, types.SourceSelectionCache))

	results, _ := mgr.Resolve(ctx, []types.Field{types.Field{
		Selector:       "#title-0",
		Classification: types.LabelJobTitle,
		SectionType:    types.SectionWork,
		Type:           types.TypeText,
	}.WithIndex(0)})

	assert.Equal(t, "Staff Engineer", results["#title-0"].Value)
	assert.Equal(t, types.SourceSelectionCache, results["#title-0"].Source)
}

func TestFlattenValueSmartJoin(t *testing.T) {
	multi := []string{"Go", "Rust"}

	// Multi control keeps matching options.
	checkbox := types.Field{Type: types.TypeCheckbox, Options: []string{"Go", "Rust", "Java"}}
	assert.Equal(t, "Go\nRust", FlattenValue(checkbox, multi))

	// Single-line control joins with commas.
	text := types.Field{Type: types.TypeText}
	assert.Equal(t, "Go, Rust", FlattenValue(text, multi))

	// Textarea joins with newlines.
	area := types.Field{Type: types.TypeTextarea}
	assert.Equal(t, "Go\nRust", FlattenValue(area, multi))

	// Single string passes through.
	assert.Equal(t, "Go", FlattenValue(text, "Go"))
}

func TestUnresolvedFallsThrough(t *testing.T) {
	mgr, _ := newTestManager(t, &types.Profile{})

	_, unresolved := mgr.Resolve(context.Background(), []types.Field{{
		Selector: "#custom",
		Label:    "Describe your ideal team",
		Type:     types.TypeTextarea,
	}})
	require.Len(t, unresolved, 1)
}
