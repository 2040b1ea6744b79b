package cv

import (
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
)

const (
	minSkillLength = 2
	maxSkillLength = 50
)

var (
	nameKeys        = []string{"name", "fullName"}
	jobTitleKeys    = []string{"jobTitle", "title", "position"}
	skillKeys       = []string{"technicalSkills", "skills"}
	educationKeys   = []string{"educations", "education"}
	experienceKeys  = []string{"professionalExperiences", "profesionalExperiences", "experiences", "experience"}
	knownRecordKeys = [][]string{nameKeys, jobTitleKeys, skillKeys, educationKeys, experienceKeys}
)

type educationFields struct {
	Institution any `mapstructure:"institution"`
	Degree      any `mapstructure:"degree"`
	Duration    any `mapstructure:"duration"`
	Details     any `mapstructure:"details"`
}

type experienceFields struct {
	Company     any `mapstructure:"company"`
	Role        any `mapstructure:"role"`
	Duration    any `mapstructure:"duration"`
	Description any `mapstructure:"description"`
}

// Normalize coerces any decoded value into a candidate. It never fails:
// wrong shapes collapse to defaults and are listed in Candidate.Dropped.
func Normalize(v Value) Candidate {
	c := Candidate{
		JobTitle:                NotSpecified,
		Educations:              []EducationEntry{},
		TechnicalSkills:         []string{},
		ProfessionalExperiences: []ExperienceEntry{},
	}

	if v.Kind() != KindObject {
		c.Dropped = append(c.Dropped, "root("+v.Kind().String()+")")
		return c
	}

	if name, _, ok := v.Lookup(nameKeys...); ok {
		c.Name, _ = CleanString(name)
	}

	if title, _, ok := v.Lookup(jobTitleKeys...); ok {
		if s, ok := CleanString(title); ok {
			c.JobTitle = s
		}
	}

	if skills, _, ok := v.Lookup(skillKeys...); ok {
		c.TechnicalSkills = normalizeSkills(skills)
	}

	if items, _, ok := v.Lookup(educationKeys...); ok {
		c.Educations = normalizeEducations(items, &c.Dropped)
	}

	if items, _, ok := v.Lookup(experienceKeys...); ok {
		c.ProfessionalExperiences = normalizeExperiences(items, &c.Dropped)
	}

	c.Dropped = append(c.Dropped, unknownKeys(v)...)

	return c
}

// CleanString accepts strings with non-blank content that are not a spelled-out null.
func CleanString(v Value) (string, bool) {
	s, ok := v.AsString()
	if !ok {
		return "", false
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "undefined") {
		return "", false
	}

	return s, true
}

func orDefault(v any, def string) string {
	if s, ok := CleanString(FromJSON(v)); ok {
		return s
	}
	return def
}

func normalizeSkills(v Value) []string {
	items, ok := v.AsArray()
	if !ok {
		return []string{}
	}

	seen := make(map[string]struct{}, len(items))
	skills := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.AsString()
		if !ok {
			continue
		}

		s = strings.TrimSpace(s)
		if n := utf8.RuneCountInString(s); n < minSkillLength || n > maxSkillLength {
			continue
		}

		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		skills = append(skills, s)
	}

	return skills
}

func normalizeEducations(v Value, dropped *[]string) []EducationEntry {
	items, ok := v.AsArray()
	if !ok {
		*dropped = append(*dropped, "educations("+v.Kind().String()+")")
		return []EducationEntry{}
	}

	entries := make([]EducationEntry, 0, len(items))
	for _, item := range items {
		var fields educationFields
		if !decodeEntry(item, &fields, "educations", dropped) {
			continue
		}

		entries = append(entries, EducationEntry{
			Institution: orDefault(fields.Institution, NotSpecified),
			Degree:      orDefault(fields.Degree, NotSpecified),
			Duration:    orDefault(fields.Duration, NotSpecified),
			Details:     orDefault(fields.Details, ""),
		})
	}

	return entries
}

func normalizeExperiences(v Value, dropped *[]string) []ExperienceEntry {
	items, ok := v.AsArray()
	if !ok {
		*dropped = append(*dropped, "professionalExperiences("+v.Kind().String()+")")
		return []ExperienceEntry{}
	}

	entries := make([]ExperienceEntry, 0, len(items))
	for _, item := range items {
		var fields experienceFields
		if !decodeEntry(item, &fields, "professionalExperiences", dropped) {
			continue
		}

		entries = append(entries, ExperienceEntry{
			Company:     orDefault(fields.Company, NotSpecified),
			Role:        orDefault(fields.Role, NotSpecified),
			Duration:    orDefault(fields.Duration, NotSpecified),
			Description: orDefault(fields.Description, ""),
		})
	}

	return entries
}

// decodeEntry maps an object entry onto a field struct. Keys match
// case-insensitively; unknown keys are reported, non-objects are skipped.
func decodeEntry(item Value, out any, section string, dropped *[]string) bool {
	if item.Kind() != KindObject {
		*dropped = append(*dropped, section+"[]("+item.Kind().String()+")")
		return false
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &md,
		Result:   out,
	})
	if err != nil {
		*dropped = append(*dropped, section+"[](decoder)")
		return false
	}

	if err := decoder.Decode(item.Interface()); err != nil {
		*dropped = append(*dropped, section+"[](decode)")
		return false
	}

	for _, key := range md.Unused {
		*dropped = append(*dropped, section+"[]."+key+"(unknown)")
	}

	return true
}

func unknownKeys(v Value) []string {
	var unknown []string
	for _, key := range v.Keys() {
		if !isKnownRecordKey(key) {
			unknown = append(unknown, key+"(unknown)")
		}
	}
	return unknown
}

func isKnownRecordKey(key string) bool {
	for _, aliases := range knownRecordKeys {
		for _, alias := range aliases {
			if strings.EqualFold(key, alias) {
				return true
			}
		}
	}
	return false
}
