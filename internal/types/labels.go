package types

// Classification labels shared across the classifier, rule engine,
// section controller, and orchestrator.
const (
	LabelFirstName = "first_name"
	LabelLastName  = "last_name"
	LabelFullName  = "full_name"
	LabelEmail     = "email"
	LabelPhone     = "phone"
	LabelLinkedIn  = "linkedin"
	LabelWebsite   = "website"

	LabelCity    = "city"
	LabelState   = "state"
	LabelCountry = "country"
	LabelZipCode = "zip_code"
	LabelAddress = "address"

	LabelEmployerName   = "employer_name"
	LabelJobTitle       = "job_title"
	LabelJobStartDate   = "job_start_date"
	LabelJobEndDate     = "job_end_date"
	LabelJobDescription = "job_description"
	LabelJobLocation    = "job_location"

	LabelInstitutionName = "institution_name"
	LabelDegreeType      = "degree_type"
	LabelFieldOfStudy    = "field_of_study"
	LabelEduStartDate    = "education_start_date"
	LabelEduEndDate      = "education_end_date"
	LabelGPA             = "gpa"

	LabelSkills = "skills"

	LabelWorkAuth    = "work_auth"
	LabelSponsorship = "sponsorship"
	LabelRelocation  = "relocation"
	LabelRemote      = "remote"

	LabelGender     = "gender"
	LabelRace       = "race"
	LabelVeteran    = "veteran"
	LabelDisability = "disability"

	LabelSalary         = "salary"
	LabelNoticePeriod   = "notice_period"
	LabelYearsExp       = "years_experience"
	LabelCoverLetter    = "cover_letter"
	LabelEmploymentNow  = "currently_employed"
	LabelUnknown        = "unknown"
	LabelAtomicMulti    = "atomic_multi"
	LabelResumeUpload   = "resume_upload"
	LabelReferralSource = "referral_source"
)

// basicIdentityLabels are resolved by the fast memory/heuristic chains and
// must never be routed into section handling, even when their markup
// resembles repeating-section fields.
var basicIdentityLabels = map[string]bool{
	LabelFirstName: true,
	LabelLastName:  true,
	LabelFullName:  true,
	LabelEmail:     true,
	LabelPhone:     true,
	LabelLinkedIn:  true,
}

// IsBasicIdentityLabel reports whether the label names a basic identity
// fact (name, email, phone, linkedin).
func IsBasicIdentityLabel(label string) bool {
	return basicIdentityLabels[label]
}
