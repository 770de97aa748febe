package pipeline

import (
	"log"
	"regexp"

	"github.com/jonathan/autofill-agent/internal/classify"
	"github.com/jonathan/autofill-agent/internal/indexing"
	"github.com/jonathan/autofill-agent/internal/matching"
	"github.com/jonathan/autofill-agent/internal/section"
	"github.com/jonathan/autofill-agent/internal/types"
)

// workLabels and educationLabels map classification labels onto section types.
var workLabels = map[string]bool{
	types.LabelEmployerName:   true,
	types.LabelJobTitle:       true,
	types.LabelJobDescription: true,
}

var educationLabels = map[string]bool{
	types.LabelInstitutionName: true,
	types.LabelDegreeType:      true,
	types.LabelFieldOfStudy:    true,
	types.LabelGPA:             true,
	types.LabelEduStartDate:    true,
	types.LabelEduEndDate:      true,
}

// dateLabels are sectional but ambiguous between work and education;
// the surrounding question text decides.
var dateLabels = map[string]bool{
	types.LabelJobStartDate: true,
	types.LabelJobEndDate:   true,
}

// enrich produces the Phase 0 copies of the input fields: classification
// (with dual-hypothesis arbitration), section typing, instance index via
// the smart sequential counter, the derived cache label, and synthetic
// Yes/No options for boolean questions missing explicit choices. Input
// fields are never mutated.
func (o *Orchestrator) enrich(fields []types.Field) []types.Field {
	o.indexer.Reset()
	headerSeen := make(map[types.SectionType]bool)
	lastHeader := types.SectionNone

	enriched := make([]types.Field, 0, len(fields))
	for _, f := range fields {
		e := f

		if e.Classification == "" {
			e = o.classifyField(e)
		}

		e.SectionType = sectionTypeFor(e, lastHeader)

		if e.SectionType == types.SectionWork || e.SectionType == types.SectionEducation {
			t := e.SectionType
			// A second header field for a type means a new section block
			// started, even without numeric markup.
			if indexing.IsStartField(e, t) {
				if headerSeen[t] {
					o.indexer.IncrementCounter(t)
				}
				headerSeen[t] = true
				lastHeader = t
			}
			if res, ok := o.indexer.ResolveIndex(e, t); ok {
				e = e.WithIndex(res.Index)
				e.IndexRemapped = res.Remapped
			}
		}

		e.CacheLabel = cacheLabelFor(e)
		e = injectBooleanOptions(e)

		enriched = append(enriched, e)
	}
	return enriched
}

// classifyField attaches a classification, preferring the dual
// classifier with confidence arbitration when available.
func (o *Orchestrator) classifyField(f types.Field) types.Field {
	var pred classify.Prediction
	switch {
	case o.dual != nil:
		heuristic, neural, err := o.dual.ClassifyDual(f)
		if err != nil {
			log.Printf("[PIPELINE] dual classification failed for %s: %v", f.Selector, err)
			return f
		}
		pred = arbitrate(heuristic, neural)
	case o.classifier != nil:
		var err error
		pred, err = o.classifier.Classify(f)
		if err != nil {
			log.Printf("[PIPELINE] classification failed for %s: %v", f.Selector, err)
			return f
		}
	default:
		return f
	}

	if pred.Label == "" || pred.Label == types.LabelUnknown || pred.Confidence <= 0 {
		return f
	}
	f.Classification = pred.Label
	f.ClassificationConfidence = pred.Confidence
	return f
}

// arbitrate picks between the heuristic and neural hypotheses. The
// winner must lead by the arbitration margin; the margin is relaxed for
// work-auth and sponsorship labels, which often carry weak neural signal
// but are safe to act on with any heuristic support. On an ambiguous
// margin the heuristic hypothesis wins.
func arbitrate(heuristic, neural classify.Prediction) classify.Prediction {
	top, second := neural, heuristic
	if heuristic.Confidence >= neural.Confidence {
		top, second = heuristic, neural
	}

	required := types.ArbitrationMargin
	if isBooleanEligibility(top.Label) || isBooleanEligibility(second.Label) {
		required = types.ArbitrationMarginRelaxed
	}
	if top.Confidence-second.Confidence >= required {
		return top
	}
	return heuristic
}

func isBooleanEligibility(label string) bool {
	return label == types.LabelWorkAuth || label == types.LabelSponsorship
}

// workDatePattern marks date labels that name employment explicitly.
var workDatePattern = regexp.MustCompile(`(?i)job|employ|work|position|role|company`)

// sectionTypeFor derives the section type from classification labels.
// Basic identity fields are always singular so the fast memory and
// heuristic chains handle them. Ambiguous date fields follow their own
// question text when it names a section, else the last-seen section
// header: a bare "Start Date" under a school header is an education date.
func sectionTypeFor(f types.Field, lastHeader types.SectionType) types.SectionType {
	if f.SectionType != types.SectionNone {
		return f.SectionType
	}
	if types.IsBasicIdentityLabel(f.Classification) {
		return types.SectionNone
	}
	switch {
	case f.Classification == types.LabelSkills:
		return types.SectionSkills
	case workLabels[f.Classification]:
		return types.SectionWork
	case educationLabels[f.Classification]:
		return types.SectionEducation
	case dateLabels[f.Classification]:
		text := f.Label + " " + f.Name
		if t := section.InferSectionType(types.Field{Label: f.Label, Name: f.Name}); t == types.SectionEducation {
			return t
		}
		if workDatePattern.MatchString(text) {
			return types.SectionWork
		}
		if lastHeader != types.SectionNone {
			return lastHeader
		}
		return types.SectionWork
	default:
		return types.SectionNone
	}
}

// cacheLabelFor derives the deterministic lookup key for a field: the
// classification label itself when the classifier was confident, else a
// normalized multi-token key from the question text.
func cacheLabelFor(f types.Field) string {
	if f.Classification != "" && f.Classification != types.LabelUnknown &&
		f.ClassificationConfidence > types.CacheLabelConfidence {
		return f.Classification
	}
	return matching.CacheKey(f.Label, f.Name, f.ID)
}

// injectBooleanOptions adds synthetic Yes/No options to work-auth and
// sponsorship choice controls that list none, so downstream filling
// always has a valid choice to select.
func injectBooleanOptions(f types.Field) types.Field {
	if !isBooleanEligibility(f.Classification) || len(f.Options) > 0 {
		return f
	}
	if f.Type == types.TypeRadio || f.Type == types.TypeSelect || f.Type == types.TypeCheckbox {
		f.Options = []string{"Yes", "No"}
	}
	return f
}
