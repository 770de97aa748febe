// Package composite resolves and fills fields whose value is inherently
// a set: checkbox groups, multi-selects, and skill pickers. It also
// handles per-section-instance singular fields routed here by the
// orchestrator.
package composite

import (
	"context"
	"log"
	"strings"

	"github.com/jonathan/autofill-agent/internal/execution"
	"github.com/jonathan/autofill-agent/internal/matching"
	"github.com/jonathan/autofill-agent/internal/memory"
	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/section"
	"github.com/jonathan/autofill-agent/internal/types"
)

// Manager resolves composite fields through a layered fallback chain:
// interaction cache, matched profile skills, profile entity attributes,
// and finally the cross-site global memory.
type Manager struct {
	entities *profile.Store
	cache    *memory.InteractionLog
	global   *memory.GlobalMemory
	exec     execution.Executor
}

// NewManager creates a Manager. Cache, global memory, and executor are
// optional; missing collaborators skip their tier.
func NewManager(entities *profile.Store, cache *memory.InteractionLog, global *memory.GlobalMemory, exec execution.Executor) *Manager {
	return &Manager{entities: entities, cache: cache, global: global, exec: exec}
}

type groupKey struct {
	sectionType types.SectionType
	index       int
}

// Resolve clusters fields by (type, instanceIndex), shares one entity
// fetch and one matched-skills computation per group, and resolves each
// field through the fallback chain. Successfully resolved fields are
// filled immediately and their results marked SkipExecution.
func (m *Manager) Resolve(ctx context.Context, fields []types.Field) (types.ResultMap, []types.Field) {
	results := make(types.ResultMap)
	var unresolved []types.Field

	groups := make(map[groupKey][]types.Field)
	order := make([]groupKey, 0)
	for _, f := range fields {
		key := groupKey{sectionType: groupType(f), index: 0}
		if idx, ok := f.Index(); ok {
			key.index = idx
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	for _, key := range order {
		// One entity fetch shared by every field in the group keeps all
		// entity-sourced values consistent with a single record.
		var entity types.Entity
		if key.sectionType == types.SectionWork || key.sectionType == types.SectionEducation {
			entity = m.entities.GetByIndex(key.sectionType, key.index)
		}

		var matchedSkills []string
		if key.sectionType == types.SectionSkills {
			matchedSkills = m.matchSkills(groups[key])
		}

		for _, f := range groups[key] {
			res, ok := m.resolveField(ctx, f, key.sectionType, entity, matchedSkills)
			if !ok {
				unresolved = append(unresolved, f)
				continue
			}
			applied := m.apply(ctx, f, res)
			res.SkipExecution = applied
			results[f.Selector] = res

			if applied && res.Source != types.SourceSelectionCache && m.cache != nil {
				if err := m.cache.Record(ctx, f, res.ValueString(), res.Confidence, res.Source); err != nil {
					log.Printf("[COMPOSITE] cache write failed for %s: %v", f.Selector, err)
				}
			}
		}
	}
	return results, unresolved
}

// matchSkills matches the union of the group's options against the
// profile skill list with the strict skill threshold; the result is
// reused for every field in the group.
func (m *Manager) matchSkills(fields []types.Field) []string {
	skills := m.entities.Profile().Skills
	if len(skills) == 0 {
		return nil
	}
	optionSet := make(map[string]bool)
	for _, f := range fields {
		for _, opt := range f.Options {
			optionSet[opt] = true
		}
	}

	var matched []string
	seen := make(map[string]bool)
	for opt := range optionSet {
		for _, skill := range skills {
			if matching.HybridScore(opt, skill) > types.SkillMatchThreshold && !seen[opt] {
				matched = append(matched, opt)
				seen[opt] = true
				break
			}
		}
	}
	// Free-text skill fields have no options; fall back to the raw list.
	if len(optionSet) == 0 {
		matched = append(matched, skills...)
	}
	return matched
}

// resolveField runs the layered fallback chain for one field.
func (m *Manager) resolveField(_ context.Context, f types.Field, t types.SectionType, entity types.Entity, matchedSkills []string) (types.Resolution, bool) {
	if m.cache != nil {
		if hit, ok := m.cache.Lookup(f); ok && hit.Confidence > types.CacheAcceptThreshold {
			return types.Resolution{
				Value:      hit.Value,
				Confidence: hit.Confidence,
				Source:     types.SourceSelectionCache,
				FieldType:  f.Type,
			}, true
		}
	}

	if t == types.SectionSkills && len(matchedSkills) > 0 {
		return types.Resolution{
			Value:      matchedSkills,
			Confidence: types.ConfidenceExact,
			Source:     types.SourceSkillMatch,
			FieldType:  f.Type,
		}, true
	}

	if entity != nil {
		if value := section.AttributeValue(entity, f.Classification); value != "" {
			confidence := types.ConfidenceExact
			if f.IndexRemapped {
				confidence = types.ConfidenceRemapped
			}
			return types.Resolution{
				Value:      value,
				Confidence: confidence,
				Source:     types.SourceHistoryMap,
				FieldType:  f.Type,
			}, true
		}
	}

	if m.global != nil {
		// Look up by the deterministic cache label attached in Phase 0;
		// fields that skipped enrichment fall back to the raw label.
		key := f.CacheLabel
		if key == "" {
			key = f.Label
		}
		if hit, ok := m.global.Lookup(key); ok {
			return types.Resolution{
				Value:      hit.Value,
				Confidence: hit.Confidence,
				Source:     types.SourceGlobalMemory,
				FieldType:  f.Type,
			}, true
		}
	}
	return types.Resolution{}, false
}

// apply writes the resolved value into the DOM through the universal
// fill primitive. Returns false when no executor is attached, leaving
// execution to the orchestrator.
func (m *Manager) apply(ctx context.Context, f types.Field, res types.Resolution) bool {
	if m.exec == nil {
		return false
	}
	value := FlattenValue(f, res.Value)
	ok, err := m.exec.Fill(ctx, f.Selector, value, res.Confidence, f)
	if err != nil {
		log.Printf("[COMPOSITE] fill error for %s: %v", f.Selector, err)
		return false
	}
	return ok
}

// FlattenValue normalizes a resolved value for the target control. For
// inherently multi-valued controls each value matching an option is kept
// (fuzzy text match) and the checked set is joined with newlines. For
// single-valued controls multiple values degrade to a smart join:
// newlines for textareas, commas for single-line inputs.
func FlattenValue(f types.Field, value any) string {
	values := toSlice(value)
	if len(values) == 0 {
		return ""
	}

	if f.IsMultiControl() && len(f.Options) > 0 {
		var checked []string
		for _, opt := range f.Options {
			for _, v := range values {
				if matching.HybridScore(opt, v) >= types.FuzzyAcceptThreshold {
					checked = append(checked, opt)
					break
				}
			}
		}
		if len(checked) > 0 {
			return strings.Join(checked, "\n")
		}
		// Nothing matched an option; keep the raw values rather than
		// silently dropping data.
		return strings.Join(values, "\n")
	}

	if len(values) == 1 {
		return values[0]
	}
	if f.Type == types.TypeTextarea {
		return strings.Join(values, "\n")
	}
	return strings.Join(values, ", ")
}

func toSlice(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// groupType determines the cluster type from classification and label
// keywords: education, skills, or work by default.
func groupType(f types.Field) types.SectionType {
	if f.SectionType == types.SectionSkills || f.Classification == types.LabelSkills ||
		strings.Contains(strings.ToLower(f.Context()), "skill") {
		return types.SectionSkills
	}
	return section.InferSectionType(f)
}
