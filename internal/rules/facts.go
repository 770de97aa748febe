// Package rules provides the deterministic resolver for simple
// single-value facts and grouped choice fields, driven by a flat fact set
// normalized from the user's profile.
package rules

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/autofill-agent/internal/types"
)

// Facts is the profile normalized into flat, directly fillable values.
type Facts struct {
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Phone     string
	LinkedIn  string
	Website   string

	City    string
	State   string
	Country string
	ZipCode string

	Gender     string
	Race       string
	Veteran    string
	Disability string

	WorkAuthorized      bool
	RequiresSponsorship bool
	WillingToRelocate   bool
	RemotePreference    string

	CurrentSalary string
	DesiredSalary string
	NoticePeriod  string

	CurrentlyEmployed    bool
	TotalYearsExperience float64
	HighestDegreeLevel   int
	HighestDegreeName    string
}

// degreeLevels maps degree keywords to an ordinal level; the max across
// education entries becomes the highest-degree fact.
var degreeLevels = []struct {
	keyword string
	level   int
	name    string
}{
	{"doctor", 5, "Doctorate"},
	{"phd", 5, "Doctorate"},
	{"ph.d", 5, "Doctorate"},
	{"juris", 5, "Doctorate"},
	{"mba", 4, "Master's"},
	{"master", 4, "Master's"},
	{"m.s", 4, "Master's"},
	{"msc", 4, "Master's"},
	{"bachelor", 3, "Bachelor's"},
	{"b.s", 3, "Bachelor's"},
	{"b.a", 3, "Bachelor's"},
	{"bsc", 3, "Bachelor's"},
	{"undergraduate", 3, "Bachelor's"},
	{"associate", 2, "Associate"},
	{"diploma", 1, "High School"},
	{"high school", 1, "High School"},
	{"ged", 1, "High School"},
}

// BuildFacts normalizes a profile into the flat fact set used by the
// rule engine.
func BuildFacts(p *types.Profile) Facts {
	if p == nil {
		p = &types.Profile{}
	}
	facts := Facts{
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		FullName:            strings.TrimSpace(p.FirstName + " " + p.LastName),
		Email:               p.Email,
		Phone:               p.Phone,
		LinkedIn:            p.LinkedIn,
		Website:             p.Website,
		City:                p.City,
		State:               p.State,
		Country:             p.Country,
		ZipCode:             p.ZipCode,
		Gender:              p.Gender,
		Race:                p.Race,
		Veteran:             p.Veteran,
		Disability:          p.Disability,
		WorkAuthorized:      p.WorkAuthorized,
		RequiresSponsorship: p.RequiresSponsorship,
		WillingToRelocate:   p.WillingToRelocate,
		RemotePreference:    p.RemotePreference,
		CurrentSalary:       p.CurrentSalary,
		DesiredSalary:       p.DesiredSalary,
		NoticePeriod:        p.NoticePeriod,
	}

	facts.TotalYearsExperience, facts.CurrentlyEmployed = totalExperience(p.Work, time.Now())
	facts.HighestDegreeLevel, facts.HighestDegreeName = highestDegree(p.Education)
	return facts
}

type interval struct {
	start, end time.Time
}

// totalExperience sums employment duration with overlapping periods
// merged first, so concurrent jobs are not double-counted. The result is
// in years with one decimal place.
func totalExperience(work []types.Entity, now time.Time) (float64, bool) {
	intervals := make([]interval, 0, len(work))
	employed := false
	for _, entity := range work {
		start, ok := parseMonth(entity.StringAttr("start_date", "job_start_date", "from"))
		if !ok {
			continue
		}
		endRaw := entity.StringAttr("end_date", "job_end_date", "to")
		end, endOK := parseMonth(endRaw)
		if !endOK {
			if endRaw == "" || isPresent(endRaw) {
				end = now
				employed = true
			} else {
				continue
			}
		}
		if end.Before(start) {
			continue
		}
		intervals = append(intervals, interval{start: start, end: end})
	}
	if len(intervals) == 0 {
		return 0, employed
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	merged := intervals[:1]
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}

	var total time.Duration
	for _, iv := range merged {
		total += iv.end.Sub(iv.start)
	}
	years := total.Hours() / (24 * 365.25)
	return math.Round(years*10) / 10, employed
}

var presentPattern = regexp.MustCompile(`(?i)^\s*(present|current|now|ongoing|today)\s*$`)

func isPresent(s string) bool {
	return presentPattern.MatchString(s)
}

var monthLayouts = []string{
	"2006-01-02", "2006-01", "01/2006", "1/2006", "Jan 2006", "January 2006", "2006",
}

func parseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isPresent(s) {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func highestDegree(education []types.Entity) (int, string) {
	best, name := 0, ""
	for _, entity := range education {
		text := strings.ToLower(entity.StringAttr("degree_type", "degree", "qualification"))
		if text == "" {
			continue
		}
		for _, entry := range degreeLevels {
			if strings.Contains(text, entry.keyword) {
				if entry.level > best {
					best, name = entry.level, entry.name
				}
				break
			}
		}
	}
	return best, name
}
