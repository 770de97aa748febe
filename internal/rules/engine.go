package rules

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/autofill-agent/internal/matching"
	"github.com/jonathan/autofill-agent/internal/types"
)

// historyPattern recognizes repeating-section history fields. These are
// explicitly deferred to the section controller rather than resolved
// here, so one job's facts never leak into another's block.
var historyPattern = regexp.MustCompile(`(?i)\b(company|employer|organi[sz]ation|school|university|college|institution|degree|major|gpa)\b|field[\s_-]*of[\s_-]*study|job[\s_-]*title|position[\s_-]*title|start[\s_-]*date|end[\s_-]*date|graduation|employment[\s_-]*date`)

// fieldRule is one entry in the ordered pattern table: the first rule
// whose pattern matches the field's combined context produces the answer.
type fieldRule struct {
	pattern *regexp.Regexp
	source  types.Source
	answer  func(Facts) string
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// fieldRules is evaluated in order; earlier entries are more specific.
var fieldRules = []fieldRule{
	// Visa and sponsorship questions
	{regexp.MustCompile(`(?i)sponsor`), types.SourceLocalRule,
		func(f Facts) string { return yesNo(f.RequiresSponsorship) }},
	{regexp.MustCompile(`(?i)\bvisa\b|authori[sz]ed[\s_-]*to[\s_-]*work|work[\s_-]*auth|legally[\s_-]*(able|allowed|entitled|authori[sz]ed)|right[\s_-]*to[\s_-]*work|eligible[\s_-]*to[\s_-]*work`), types.SourceLocalRule,
		func(f Facts) string { return yesNo(f.WorkAuthorized) }},
	// Relocation and remote preferences
	{regexp.MustCompile(`(?i)relocat`), types.SourceLocalRule,
		func(f Facts) string { return yesNo(f.WillingToRelocate) }},
	{regexp.MustCompile(`(?i)\bremote\b|\bhybrid\b|on-?site|work[\s_-]*(location|arrangement)[\s_-]*preference`), types.SourceLocalRule,
		func(f Facts) string { return f.RemotePreference }},
	// Demographics
	{regexp.MustCompile(`(?i)\bgender\b|\bsex\b`), types.SourceLocalRule,
		func(f Facts) string { return f.Gender }},
	{regexp.MustCompile(`(?i)\brace\b|ethnicit`), types.SourceLocalRule,
		func(f Facts) string { return f.Race }},
	{regexp.MustCompile(`(?i)veteran|military[\s_-]*(status|service)`), types.SourceLocalRule,
		func(f Facts) string { return f.Veteran }},
	{regexp.MustCompile(`(?i)disab`), types.SourceLocalRule,
		func(f Facts) string { return f.Disability }},
	// Notice period and availability
	{regexp.MustCompile(`(?i)notice[\s_-]*period|\bnotice\b|when[\s_-]*can[\s_-]*you[\s_-]*start|available[\s_-]*to[\s_-]*start|earliest[\s_-]*start`), types.SourceLocalRule,
		func(f Facts) string { return f.NoticePeriod }},
	// Employment status
	{regexp.MustCompile(`(?i)currently[\s_-]*employed|employment[\s_-]*status`), types.SourceLocalRule,
		func(f Facts) string { return yesNo(f.CurrentlyEmployed) }},
	// Name parts
	{regexp.MustCompile(`(?i)first[\s_-]*name|given[\s_-]*name|\bfname\b`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.FirstName }},
	{regexp.MustCompile(`(?i)last[\s_-]*name|family[\s_-]*name|surname|\blname\b`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.LastName }},
	{regexp.MustCompile(`(?i)full[\s_-]*name|legal[\s_-]*name|your[\s_-]*name|^\s*name\s*$`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.FullName }},
	// Contact info
	{regexp.MustCompile(`(?i)e-?mail`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.Email }},
	{regexp.MustCompile(`(?i)\bphone\b|\bmobile\b|\bcell\b|\btel\b`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.Phone }},
	// Address
	{regexp.MustCompile(`(?i)\bcity\b|\btown\b`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.City }},
	{regexp.MustCompile(`(?i)\bstate\b|\bprovince\b`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.State }},
	{regexp.MustCompile(`(?i)\bcountry\b`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.Country }},
	{regexp.MustCompile(`(?i)zip|postal`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.ZipCode }},
	// Profile links
	{regexp.MustCompile(`(?i)linked[\s_-]*in`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.LinkedIn }},
	{regexp.MustCompile(`(?i)website|portfolio|personal[\s_-]*site|github`), types.SourceLocalHeuristic,
		func(f Facts) string { return f.Website }},
	// Compensation
	{regexp.MustCompile(`(?i)current[\s_-]*salary|current[\s_-]*compensation`), types.SourceLocalRule,
		func(f Facts) string { return f.CurrentSalary }},
	{regexp.MustCompile(`(?i)salary|compensation|desired[\s_-]*pay|pay[\s_-]*(expectation|rate)`), types.SourceLocalRule,
		func(f Facts) string {
			if f.DesiredSalary != "" {
				return f.DesiredSalary
			}
			return f.CurrentSalary
		}},
}

var experiencePattern = regexp.MustCompile(`(?i)years?[\s_-]*(of)?[\s_-]*(\w+[\s_-]*)?experience|total[\s_-]*experience|\byoe\b`)

// Engine resolves fields whose answer is derivable from resume facts,
// without invoking AI.
type Engine struct {
	facts Facts
}

// New creates an Engine with facts normalized from the profile.
func New(p *types.Profile) *Engine {
	return &Engine{facts: BuildFacts(p)}
}

// NewWithFacts creates an Engine from a pre-built fact set (tests).
func NewWithFacts(f Facts) *Engine {
	return &Engine{facts: f}
}

// Facts exposes the normalized fact set.
func (e *Engine) Facts() Facts {
	return e.facts
}

// Resolve runs every field through the pattern table and returns the
// resolved result map plus the fields left for later tiers. History
// fields belonging to repeating sections are always deferred.
func (e *Engine) Resolve(fields []types.Field) (types.ResultMap, []types.Field) {
	results := make(types.ResultMap)
	var unresolved []types.Field

	for _, f := range fields {
		res, ok := e.ResolveField(f)
		if !ok {
			unresolved = append(unresolved, f)
			continue
		}
		results[f.Selector] = res
	}
	return results, unresolved
}

// ResolveField resolves a single field, reporting ok=false when no rule
// produced an answer.
func (e *Engine) ResolveField(f types.Field) (types.Resolution, bool) {
	ctx := f.Context()
	if historyPattern.MatchString(ctx) {
		return types.Resolution{}, false
	}

	if experiencePattern.MatchString(ctx) {
		return e.resolveExperience(f)
	}

	for _, rule := range fieldRules {
		if !rule.pattern.MatchString(ctx) {
			continue
		}
		answer := rule.answer(e.facts)
		if answer == "" {
			return types.Resolution{}, false
		}
		if len(f.Options) > 0 {
			option, score := matching.BestOption(answer, f.Options)
			if score < types.FuzzyAcceptThreshold {
				return types.Resolution{}, false
			}
			return types.Resolution{
				Value:      option,
				Confidence: types.ConfidenceExact,
				Source:     rule.source,
				FieldType:  f.Type,
			}, true
		}
		return types.Resolution{
			Value:      answer,
			Confidence: types.ConfidenceExact,
			Source:     rule.source,
			FieldType:  f.Type,
		}, true
	}
	return types.Resolution{}, false
}

// resolveExperience answers years-of-experience questions, matching the
// computed total against option ranges when the control has options.
func (e *Engine) resolveExperience(f types.Field) (types.Resolution, bool) {
	total := e.facts.TotalYearsExperience
	if total <= 0 {
		return types.Resolution{}, false
	}
	if len(f.Options) == 0 {
		return types.Resolution{
			Value:      formatYears(total),
			Confidence: types.ConfidenceExact,
			Source:     types.SourceLocalRule,
			FieldType:  f.Type,
		}, true
	}
	option, ok := MatchExperienceRange(total, f.Options)
	if !ok {
		return types.Resolution{}, false
	}
	return types.Resolution{
		Value:      option,
		Confidence: types.ConfidenceExact,
		Source:     types.SourceLocalRule,
		FieldType:  f.Type,
	}, true
}

var (
	rangePattern  = regexp.MustCompile(`(\d+)\s*(?:-|–|to)\s*(\d+)`)
	plusPattern   = regexp.MustCompile(`(\d+)\s*\+`)
	numberPattern = regexp.MustCompile(`(\d+)`)
)

// MatchExperienceRange selects the option whose numeric range contains
// the total years of experience. Options may read "N-M", "N+", or a bare
// number (treated as a minimum); when several qualify the tightest
// (largest minimum) wins.
func MatchExperienceRange(total float64, options []string) (string, bool) {
	best, bestMin, found := "", -1.0, false
	for _, opt := range options {
		min, max, ok := parseRange(opt)
		if !ok {
			continue
		}
		if total >= min && total <= max && min > bestMin {
			best, bestMin, found = opt, min, true
		}
	}
	return best, found
}

func parseRange(opt string) (min, max float64, ok bool) {
	if m := rangePattern.FindStringSubmatch(opt); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		return float64(lo), float64(hi), true
	}
	if m := plusPattern.FindStringSubmatch(opt); m != nil {
		lo, _ := strconv.Atoi(m[1])
		return float64(lo), math.Inf(1), true
	}
	if m := numberPattern.FindStringSubmatch(opt); m != nil {
		lo, _ := strconv.Atoi(m[1])
		return float64(lo), math.Inf(1), true
	}
	return 0, 0, false
}

func formatYears(total float64) string {
	if total == math.Trunc(total) {
		return strconv.Itoa(int(total))
	}
	return strings.TrimRight(fmt.Sprintf("%.1f", total), "0")
}
