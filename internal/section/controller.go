// Package section fills repeating-section instances transactionally: all
// entity-sourced fields in one "Job #N" block come from exactly one
// stored entity, never a blend of two records.
package section

import (
	"context"
	"regexp"

	"github.com/jonathan/autofill-agent/internal/memory"
	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/types"
)

// educationPattern infers the education section type from a field's
// classification or question text; anything else sectional defaults to work.
var educationPattern = regexp.MustCompile(`(?i)school|education|degree|institution|university|college|major|field[\s_-]*of[\s_-]*study|gpa|graduation`)

// attributeAliases translates a classification label into candidate
// entity attribute keys, tried in order. Stored profiles vary in which
// key they use for the same concept, so each label fans out to every
// naming the store has been seen to hold.
var attributeAliases = map[string][]string{
	types.LabelEmployerName:    {"employer_name", "company_name", "name", "company", "employer", "organization"},
	types.LabelJobTitle:        {"job_title", "title", "position", "role"},
	types.LabelJobStartDate:    {"start_date", "job_start_date", "from"},
	types.LabelJobEndDate:      {"end_date", "job_end_date", "to"},
	types.LabelJobDescription:  {"description", "responsibilities", "duties", "summary", "bullets"},
	types.LabelJobLocation:     {"location", "city"},
	types.LabelInstitutionName: {"institution_name", "school_name", "name", "school", "institution", "university"},
	types.LabelDegreeType:      {"degree_type", "degree", "qualification"},
	types.LabelFieldOfStudy:    {"field_of_study", "major", "field", "discipline"},
	types.LabelEduStartDate:    {"start_date", "education_start_date", "from"},
	types.LabelEduEndDate:      {"end_date", "education_end_date", "graduation_date", "to"},
	types.LabelGPA:             {"gpa", "grade"},
}

// Controller resolves one repeating-section instance at a time from the
// interaction cache and the entity store.
type Controller struct {
	entities *profile.Store
	cache    *memory.InteractionLog
}

// NewController creates a Controller. The cache may be nil, in which case
// only entity mapping runs.
func NewController(entities *profile.Store, cache *memory.InteractionLog) *Controller {
	return &Controller{entities: entities, cache: cache}
}

type groupKey struct {
	sectionType types.SectionType
	index       int
}

// Resolve groups the fields by (sectionType, instanceIndex) and maps each
// group from one source entity. Per field the cache is checked first;
// only on a miss does the single fetched entity supply the value. Fields
// with neither are returned unresolved for the AI tier.
func (c *Controller) Resolve(ctx context.Context, fields []types.Field) (types.ResultMap, []types.Field) {
	results := make(types.ResultMap)
	var unresolved []types.Field

	groups := make(map[groupKey][]types.Field)
	order := make([]groupKey, 0)
	for _, f := range fields {
		key := groupKey{sectionType: InferSectionType(f), index: 0}
		if idx, ok := f.Index(); ok {
			key.index = idx
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	for _, key := range order {
		// Absent resume data must not block cache-only lookups: fall back
		// to an empty entity and keep mapping.
		entity := c.entities.GetByIndex(key.sectionType, key.index)
		if entity == nil {
			entity = types.Entity{}
		}

		for _, f := range groups[key] {
			if res, ok := c.resolveField(f, entity); ok {
				results[f.Selector] = res
			} else {
				unresolved = append(unresolved, f)
			}
		}
	}
	_ = ctx
	return results, unresolved
}

func (c *Controller) resolveField(f types.Field, entity types.Entity) (types.Resolution, bool) {
	if c.cache != nil {
		if hit, ok := c.cache.Lookup(f); ok && hit.Confidence > types.CacheAcceptThreshold {
			return types.Resolution{
				Value:      hit.Value,
				Confidence: hit.Confidence,
				Source:     types.SourceSelectionCache,
				FieldType:  f.Type,
			}, true
		}
	}

	aliases, ok := attributeAliases[f.Classification]
	if !ok {
		return types.Resolution{}, false
	}
	value := entity.StringAttr(aliases...)
	if value == "" {
		return types.Resolution{}, false
	}
	return types.Resolution{
		Value:      value,
		Confidence: entityConfidence(f),
		Source:     types.SourceHistoryMap,
		FieldType:  f.Type,
	}, true
}

// entityConfidence is ConfidenceExact for direct index matches and
// ConfidenceRemapped when the instance index was reached through a
// raw-to-logical remap of out-of-sequence markup ids.
func entityConfidence(f types.Field) float64 {
	if f.IndexRemapped {
		return types.ConfidenceRemapped
	}
	return types.ConfidenceExact
}

// AttributeValue resolves a classification label against an entity via
// the alias table, returning the first non-empty attribute.
func AttributeValue(entity types.Entity, classification string) string {
	aliases, ok := attributeAliases[classification]
	if !ok {
		return ""
	}
	return entity.StringAttr(aliases...)
}

// InferSectionType returns the field's section type, inferring it from
// the classification label and question text when untagged.
func InferSectionType(f types.Field) types.SectionType {
	if f.SectionType != types.SectionNone {
		return f.SectionType
	}
	if educationPattern.MatchString(f.Classification) || educationPattern.MatchString(f.Label) {
		return types.SectionEducation
	}
	return types.SectionWork
}
