// Package cv holds the structured candidate record and the rules that turn
// untrusted decoded JSON into it.
package cv

const (
	// NotSpecified stands in for an absent scalar field.
	NotSpecified = "Not specified"
	// ParseErrorName is stored as the name when no strategy recovered one.
	ParseErrorName = "Parse Error - Manual Review Required"
)

// Record is the canonical extraction output handed to the caller.
type Record struct {
	Name                    string            `json:"name"`
	JobTitle                string            `json:"jobTitle"`
	Educations              []EducationEntry  `json:"educations"`
	TechnicalSkills         []string          `json:"technicalSkills"`
	ProfessionalExperiences []ExperienceEntry `json:"professionalExperiences"`
	RawText                 string            `json:"rawText"`
	ExtractionError         string            `json:"extractionError,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Duration    string `json:"duration"`
	Details     string `json:"details"`
}

type ExperienceEntry struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// NeedsReview reports whether the record carries the unrecoverable-name sentinel.
func (r Record) NeedsReview() bool {
	return r.Name == ParseErrorName
}

// Failed reports whether every extraction strategy failed.
func (r Record) Failed() bool {
	return r.ExtractionError != ""
}

// Candidate is one strategy's complete interpretation of a document. Name is
// empty when the strategy could not recover one; the sentinel is applied by Record.
type Candidate struct {
	Name                    string
	JobTitle                string
	Educations              []EducationEntry
	TechnicalSkills         []string
	ProfessionalExperiences []ExperienceEntry

	// Dropped lists input keys or entries that were ignored while normalizing.
	Dropped []string
}

func (c Candidate) HasName() bool {
	return c.Name != ""
}

// Record converts the candidate into an output record. Collections are copied
// so the record shares no backing arrays with the candidate.
func (c Candidate) Record(rawText string) Record {
	name := c.Name
	if name == "" {
		name = ParseErrorName
	}

	jobTitle := c.JobTitle
	if jobTitle == "" {
		jobTitle = NotSpecified
	}

	return Record{
		Name:                    name,
		JobTitle:                jobTitle,
		Educations:              append(make([]EducationEntry, 0, len(c.Educations)), c.Educations...),
		TechnicalSkills:         append(make([]string, 0, len(c.TechnicalSkills)), c.TechnicalSkills...),
		ProfessionalExperiences: append(make([]ExperienceEntry, 0, len(c.ProfessionalExperiences)), c.ProfessionalExperiences...),
		RawText:                 rawText,
	}
}

// ErrorRecord is the record returned when no strategy produced a usable interpretation.
func ErrorRecord(rawText, reason string) Record {
	if reason == "" {
		reason = "no extraction strategy succeeded"
	}

	return Record{
		Name:                    ParseErrorName,
		JobTitle:                NotSpecified,
		Educations:              []EducationEntry{},
		TechnicalSkills:         []string{},
		ProfessionalExperiences: []ExperienceEntry{},
		RawText:                 rawText,
		ExtractionError:         reason,
	}
}
