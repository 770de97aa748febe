// Package classify defines the classifier contract consumed by the
// pipeline and ships a keyword-table heuristic classifier so scans work
// without the trained model attached.
package classify

import (
	"regexp"

	"github.com/jonathan/autofill-agent/internal/types"
)

// Prediction is one classifier hypothesis for a field.
type Prediction struct {
	Label      string
	Confidence float64
	Source     string
}

// Classifier assigns a semantic label to a field.
type Classifier interface {
	Classify(f types.Field) (Prediction, error)
}

// DualClassifier returns separate heuristic and neural hypotheses for
// confidence arbitration in the orchestrator.
type DualClassifier interface {
	Classifier
	ClassifyDual(f types.Field) (heuristic, neural Prediction, err error)
}

// labelRule is one entry in the ordered keyword table; the first
// matching pattern wins.
type labelRule struct {
	pattern    *regexp.Regexp
	label      string
	confidence float64
}

var labelRules = []labelRule{
	{regexp.MustCompile(`(?i)first[\s_-]*name|given[\s_-]*name|\bfname\b`), types.LabelFirstName, 0.95},
	{regexp.MustCompile(`(?i)last[\s_-]*name|family[\s_-]*name|surname|\blname\b`), types.LabelLastName, 0.95},
	{regexp.MustCompile(`(?i)full[\s_-]*name|legal[\s_-]*name`), types.LabelFullName, 0.9},
	{regexp.MustCompile(`(?i)e-?mail`), types.LabelEmail, 0.95},
	{regexp.MustCompile(`(?i)\bphone\b|\bmobile\b|\bcell\b`), types.LabelPhone, 0.95},
	{regexp.MustCompile(`(?i)linked[\s_-]*in`), types.LabelLinkedIn, 0.95},
	{regexp.MustCompile(`(?i)website|portfolio|github`), types.LabelWebsite, 0.85},

	{regexp.MustCompile(`(?i)sponsor`), types.LabelSponsorship, 0.85},
	{regexp.MustCompile(`(?i)\bvisa\b|authori[sz]ed[\s_-]*to[\s_-]*work|work[\s_-]*auth|right[\s_-]*to[\s_-]*work|eligible[\s_-]*to[\s_-]*work`), types.LabelWorkAuth, 0.85},
	{regexp.MustCompile(`(?i)relocat`), types.LabelRelocation, 0.85},
	{regexp.MustCompile(`(?i)\bremote\b|\bhybrid\b|work[\s_-]*location[\s_-]*preference`), types.LabelRemote, 0.8},

	{regexp.MustCompile(`(?i)\bgender\b|\bsex\b`), types.LabelGender, 0.9},
	{regexp.MustCompile(`(?i)\brace\b|ethnicit`), types.LabelRace, 0.9},
	{regexp.MustCompile(`(?i)veteran|military[\s_-]*(status|service)`), types.LabelVeteran, 0.9},
	{regexp.MustCompile(`(?i)disab`), types.LabelDisability, 0.9},

	{regexp.MustCompile(`(?i)school|university|college|institution`), types.LabelInstitutionName, 0.85},
	{regexp.MustCompile(`(?i)\bdegree\b|qualification`), types.LabelDegreeType, 0.85},
	{regexp.MustCompile(`(?i)field[\s_-]*of[\s_-]*study|\bmajor\b|discipline`), types.LabelFieldOfStudy, 0.85},
	{regexp.MustCompile(`(?i)\bgpa\b|grade[\s_-]*point`), types.LabelGPA, 0.9},

	{regexp.MustCompile(`(?i)company|employer|organi[sz]ation`), types.LabelEmployerName, 0.85},
	{regexp.MustCompile(`(?i)job[\s_-]*title|position[\s_-]*title|\btitle\b|\brole\b`), types.LabelJobTitle, 0.8},
	{regexp.MustCompile(`(?i)start[\s_-]*date|from[\s_-]*date|date[\s_-]*started`), types.LabelJobStartDate, 0.8},
	{regexp.MustCompile(`(?i)end[\s_-]*date|to[\s_-]*date|until|date[\s_-]*ended`), types.LabelJobEndDate, 0.8},
	{regexp.MustCompile(`(?i)responsibilit|duties|describe[\s_-]*your|description`), types.LabelJobDescription, 0.75},

	{regexp.MustCompile(`(?i)skill`), types.LabelSkills, 0.85},
	{regexp.MustCompile(`(?i)years?[\s_-]*of[\s_-]*experience|total[\s_-]*experience|\byoe\b`), types.LabelYearsExp, 0.85},
	{regexp.MustCompile(`(?i)salary|compensation|desired[\s_-]*pay`), types.LabelSalary, 0.85},
	{regexp.MustCompile(`(?i)notice[\s_-]*period|when[\s_-]*can[\s_-]*you[\s_-]*start`), types.LabelNoticePeriod, 0.85},
	{regexp.MustCompile(`(?i)cover[\s_-]*letter|why[\s_-]*do[\s_-]*you[\s_-]*want`), types.LabelCoverLetter, 0.8},
	{regexp.MustCompile(`(?i)how[\s_-]*did[\s_-]*you[\s_-]*hear|referral`), types.LabelReferralSource, 0.85},

	{regexp.MustCompile(`(?i)\bcity\b|\btown\b`), types.LabelCity, 0.9},
	{regexp.MustCompile(`(?i)\bstate\b|\bprovince\b`), types.LabelState, 0.9},
	{regexp.MustCompile(`(?i)\bcountry\b`), types.LabelCountry, 0.9},
	{regexp.MustCompile(`(?i)zip|postal`), types.LabelZipCode, 0.9},
	{regexp.MustCompile(`(?i)address`), types.LabelAddress, 0.8},

	{regexp.MustCompile(`(?i)resume|\bcv\b`), types.LabelResumeUpload, 0.85},
}

// HeuristicClassifier labels fields using the ordered keyword table.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates the default keyword classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Classify returns the first matching label rule, or an unknown
// prediction with zero confidence.
func (c *HeuristicClassifier) Classify(f types.Field) (Prediction, error) {
	ctx := f.Context()
	for _, rule := range labelRules {
		if rule.pattern.MatchString(ctx) {
			return Prediction{Label: rule.label, Confidence: rule.confidence, Source: "heuristic"}, nil
		}
	}
	return Prediction{Label: types.LabelUnknown, Confidence: 0, Source: "heuristic"}, nil
}
