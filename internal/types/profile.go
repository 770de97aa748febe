package types

import "time"

// Entity is one structured record (one job or one education stint) in the
// user's profile. Attributes are string-keyed to match the persisted JSON
// shape; values are strings or string slices (bullet lists).
type Entity map[string]any

// Bookkeeping attribute keys maintained by the entity store.
const (
	AttrCreated  = "created"
	AttrLastUsed = "last_used"
)

// StringAttr returns the first non-empty attribute among the given keys,
// flattening string slices with newlines.
func (e Entity) StringAttr(keys ...string) string {
	for _, key := range keys {
		raw, ok := e[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v
			}
		case []string:
			if len(v) > 0 {
				return joinLines(v)
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return joinLines(parts)
			}
		}
	}
	return ""
}

// Touch updates the last-used bookkeeping timestamp.
func (e Entity) Touch(now time.Time) {
	e[AttrLastUsed] = now.UTC().Format(time.RFC3339)
}

// Profile is the user's structured resume data: flat identity and
// preference facts plus ordered work/education entity lists. List
// position is the canonical index matched against a field's instance
// index.
type Profile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Website   string `json:"website,omitempty"`

	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`

	Gender     string `json:"gender,omitempty"`
	Race       string `json:"race,omitempty"`
	Veteran    string `json:"veteran,omitempty"`
	Disability string `json:"disability,omitempty"`

	WorkAuthorized      bool   `json:"work_authorized"`
	RequiresSponsorship bool   `json:"requires_sponsorship"`
	WillingToRelocate   bool   `json:"willing_to_relocate"`
	RemotePreference    string `json:"remote_preference,omitempty"`

	CurrentSalary string `json:"current_salary,omitempty"`
	DesiredSalary string `json:"desired_salary,omitempty"`
	NoticePeriod  string `json:"notice_period,omitempty"`

	Work      []Entity `json:"work,omitempty"`
	Education []Entity `json:"education,omitempty"`
	Skills    []string `json:"skills,omitempty"`

	Updated string `json:"updated,omitempty"`
}

// Entities returns the ordered entity list for a section type.
func (p *Profile) Entities(t SectionType) []Entity {
	switch t {
	case SectionWork:
		return p.Work
	case SectionEducation:
		return p.Education
	default:
		return nil
	}
}
