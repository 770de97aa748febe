package types

// Source identifies the provenance of a resolved value.
type Source string

// Provenance tags for resolution results
const (
	// SourceSelectionCache is a selector- or instance-aware interaction-log hit
	SourceSelectionCache Source = "selection_cache"
	// SourceHistoryMap is a value mapped from a stored work/education entity
	SourceHistoryMap Source = "history_map"
	// SourceLocalRule is a deterministic grouped-choice or boolean-logic answer
	SourceLocalRule Source = "local_rule"
	// SourceLocalHeuristic is a direct resume-fact fill (name, email, phone)
	SourceLocalHeuristic Source = "local_heuristic"
	// SourceGlobalMemory is a cross-site learned-answer cache hit
	SourceGlobalMemory Source = "global_memory"
	// SourceSkillMatch is a profile-skill fuzzy match against option text
	SourceSkillMatch Source = "skill_match"
	// SourceAI is the batched AI fallback
	SourceAI Source = "ai"
)

// Decision values attached to results that carry no fill value.
const (
	DecisionIgnore = "ignore"
)

// Resolution is the pipeline's output unit for one field.
// Value is a string for single-valued controls and a []string for
// multi-valued ones. Confidence reflects the strength of the evidence:
// exact cache/entity matches are 1.0 (0.9 for index-remapped lookups),
// fuzzy matches are scaled by similarity, AI confidence comes from the
// AI layer.
type Resolution struct {
	Value      any     `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	FieldType  string  `json:"field_type,omitempty"`
	Decision   string  `json:"decision,omitempty"`
	Reason     string  `json:"reason,omitempty"`

	// SkipExecution is set when a sub-handler already applied the value
	// to the DOM (composite fills), so the execution engine must not
	// write it again.
	SkipExecution bool `json:"skip_execution,omitempty"`
}

// ValueString returns the resolution value flattened to a single string.
// Multi-values are joined with newlines.
func (r Resolution) ValueString() string {
	switch v := r.Value.(type) {
	case string:
		return v
	case []string:
		return joinLines(v)
	default:
		return ""
	}
}

func joinLines(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += "\n"
		}
		out += v
	}
	return out
}

// ResultMap is the orchestrator's output contract: one entry per input
// field, keyed by the field's DOM selector.
type ResultMap map[string]Resolution
