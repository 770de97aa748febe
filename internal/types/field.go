// Package types provides type definitions for structured data used throughout the autofill-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// SectionType identifies which repeating-section category a field belongs to.
type SectionType string

// Section type constants for repeating form sections
const (
	// SectionWork covers employment history blocks (one job per instance)
	SectionWork SectionType = "work"
	// SectionEducation covers education history blocks (one stint per instance)
	SectionEducation SectionType = "education"
	// SectionSkills covers skill lists and skill multi-selects
	SectionSkills SectionType = "skills"
	// SectionNone marks a field that does not belong to any repeating section
	SectionNone SectionType = ""
)

// Field represents a single detected form control.
// Fields are created fresh per form scan and discarded once the scan's
// result map is produced; only resolved values persist.
type Field struct {
	Selector string   `json:"selector"`
	Name     string   `json:"name,omitempty"`
	ID       string   `json:"id,omitempty"`
	Label    string   `json:"label,omitempty"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Value    string   `json:"value,omitempty"`

	// Enrichment attached during Phase 0. Classification is the semantic
	// tag (e.g. "job_title"); CacheLabel is the deterministic key used for
	// learned-answer lookups.
	Classification           string  `json:"classification,omitempty"`
	ClassificationConfidence float64 `json:"classification_confidence,omitempty"`
	CacheLabel               string  `json:"cache_label,omitempty"`

	// InstanceIndex is only meaningful when SectionType is set; a nil
	// index means the field is singular (non-repeating). IndexRemapped
	// records that the index came from a raw-to-logical remap of
	// out-of-sequence markup ids rather than direct markup, which lowers
	// the confidence of entity values resolved through it.
	InstanceIndex *int        `json:"instance_index,omitempty"`
	IndexRemapped bool        `json:"index_remapped,omitempty"`
	SectionType   SectionType `json:"section_type,omitempty"`

	// AtomicMulti marks survey-style multi-selects that must never be
	// hijacked by sectional indexing.
	AtomicMulti bool `json:"atomic_multi,omitempty"`
}

// Context returns the concatenated textual context used by keyword and
// regex heuristics: label, name, id, and classification label.
func (f Field) Context() string {
	return f.Label + " " + f.Name + " " + f.ID + " " + f.Classification
}

// IsMultiControl reports whether the control inherently accepts multiple values.
func (f Field) IsMultiControl() bool {
	return f.Type == TypeCheckbox || f.Type == TypeMultiSelect
}

// WithIndex returns a copy of the field with the given instance index attached.
func (f Field) WithIndex(idx int) Field {
	f.InstanceIndex = &idx
	return f
}

// Index returns the instance index and whether one is set.
func (f Field) Index() (int, bool) {
	if f.InstanceIndex == nil {
		return 0, false
	}
	return *f.InstanceIndex, true
}

// Control type constants as produced by the field extractor
const (
	TypeText        = "text"
	TypeEmail       = "email"
	TypeTel         = "tel"
	TypeURL         = "url"
	TypeNumber      = "number"
	TypeDate        = "date"
	TypeTextarea    = "textarea"
	TypeRadio       = "radio"
	TypeCheckbox    = "checkbox"
	TypeSelect      = "select"
	TypeMultiSelect = "multiselect"
	TypeFile        = "file"
	TypeHidden      = "hidden"
)
