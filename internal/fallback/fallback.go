// Package fallback recovers a best-effort candidate from raw document text
// with heading-anchored regions and line heuristics.
package fallback

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/cv-extractor/internal/cv"
)

const (
	nameScanLines      = 5
	maxNameLength      = 50
	minSkillLength     = 2
	maxSkillLength     = 30 // exclusive
	maxSkills          = 20
	maxEducations      = 10
	maxExperiences     = 5
	maxCompanyLength   = 60
	maxInstitutionText = 150
	maxHeadingLength   = 40
	minHeadingLetters  = 4
)

type section int

const (
	sectionNone section = iota - 1
	sectionSkills
	sectionEducation
	sectionExperience
)

var headings = map[section][]string{
	sectionSkills: {
		"skills", "skill", "technical skills", "skills & tools", "skills and tools",
		"core competencies", "competencies", "technologies", "tools",
	},
	sectionEducation: {
		"education", "academic background", "educational background", "qualifications",
	},
	sectionExperience: {
		"experience", "experiences", "work experience", "professional experience",
		"employment history", "work history", "projects", "project experience",
	},
}

var titleLines = []string{
	"curriculum vitae", "resume", "résumé", "cv", "summary", "profile",
	"professional summary", "personal profile", "personal information",
	"contact information", "about me", "cover letter",
}

var (
	nameWord        = `[A-Z][a-z]*(?:['-][A-Z]?[a-z]+)*`
	namePattern     = regexp.MustCompile(`^` + nameWord + `(?:\s+(?:[A-Z]\.|` + nameWord + `)){1,3}$`)
	skillSeparator  = regexp.MustCompile(`[,;|•●▪◦·]|\s+[-–—]\s+`)
	skillDecoration = regexp.MustCompile(`[^\p{L}\p{N}\s+#./&-]`)
	bulletPrefix    = regexp.MustCompile(`^\s*(?:[-–—*•●▪◦·>]|\d+[.)])\s*`)
	yearRange       = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|–|—|to)\s*((?:19|20)\d{2}|present|current|now)\b`)
	companySplit    = regexp.MustCompile(`\s+(?:[-–—|@]|at)\s+|,\s+`)
	educationWords  = []string{"university", "college", "institute", "school", "academy", "bachelor", "master", "degree", "diploma", "phd", "b.sc", "m.sc"}
)

// Extract never fails: missing matches yield empty collections and no name.
func Extract(text string) cv.Candidate {
	c := cv.Candidate{
		JobTitle:                cv.NotSpecified,
		Educations:              []cv.EducationEntry{},
		TechnicalSkills:         []string{},
		ProfessionalExperiences: []cv.ExperienceEntry{},
	}

	lines := splitLines(text)

	c.Name = findName(lines)
	c.TechnicalSkills = extractSkills(region(lines, sectionSkills))
	c.Educations = extractEducations(region(lines, sectionEducation))
	c.ProfessionalExperiences = extractExperiences(region(lines, sectionExperience))

	return c
}

func splitLines(text string) []string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimSpace(line))
	}
	return lines
}

func findName(lines []string) string {
	scanned := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		if scanned == nameScanLines {
			break
		}
		scanned++

		if headingSection(line) != sectionNone || isTitleLine(line) {
			continue
		}
		if utf8.RuneCountInString(line) <= maxNameLength && namePattern.MatchString(line) {
			return line
		}
	}
	return ""
}

// isTitleLine reports document titles that look like names, such as "Curriculum Vitae".
func isTitleLine(line string) bool {
	h := normalizeHeading(line)
	for _, title := range titleLines {
		if h == title {
			return true
		}
	}
	return false
}

// region returns the lines between the first heading of s and the next heading-like line.
func region(lines []string, s section) []string {
	start := -1
	for i, line := range lines {
		if headingSection(line) == s && isHeading(line) {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return nil
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isHeading(lines[i]) {
			end = i
			break
		}
	}

	out := make([]string, 0, end-start)
	for _, line := range lines[start:end] {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func normalizeHeading(line string) string {
	line = strings.TrimSpace(strings.TrimRight(line, ": "))
	return strings.ToLower(strings.Join(strings.Fields(line), " "))
}

func headingSection(line string) section {
	h := normalizeHeading(line)
	for s, aliases := range headings {
		for _, alias := range aliases {
			if h == alias {
				return s
			}
		}
	}
	return sectionNone
}

// isHeading matches known section titles in any case and other short all-caps lines.
func isHeading(line string) bool {
	if line == "" {
		return false
	}
	if headingSection(line) != sectionNone {
		return true
	}
	if utf8.RuneCountInString(line) > maxHeadingLength {
		return false
	}

	letters := 0
	for _, r := range strings.TrimRight(line, ":") {
		switch {
		case unicode.IsLetter(r):
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		case r == ' ' || r == '&' || r == '/':
		default:
			return false
		}
	}
	return letters >= minHeadingLetters
}

func extractSkills(lines []string) []string {
	seen := make(map[string]struct{})
	skills := make([]string, 0)

	for _, line := range lines {
		line = bulletPrefix.ReplaceAllString(line, "")
		// "Languages: Go, Rust" keeps only the list part.
		if idx := strings.Index(line, ":"); idx != -1 {
			line = line[idx+1:]
		}

		for _, token := range skillSeparator.Split(line, -1) {
			token = skillDecoration.ReplaceAllString(token, "")
			token = strings.TrimRight(strings.Trim(strings.TrimSpace(token), "-/&"), ".")
			token = strings.Join(strings.Fields(token), " ")

			if n := utf8.RuneCountInString(token); n < minSkillLength || n >= maxSkillLength {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}

			seen[token] = struct{}{}
			skills = append(skills, token)
			if len(skills) == maxSkills {
				return skills
			}
		}
	}

	return skills
}

func extractEducations(lines []string) []cv.EducationEntry {
	entries := make([]cv.EducationEntry, 0)
	for _, line := range lines {
		if !mentionsEducation(line) {
			continue
		}

		institution := truncate(bulletPrefix.ReplaceAllString(line, ""), maxInstitutionText)
		entries = append(entries, cv.EducationEntry{
			Institution: institution,
			Degree:      cv.NotSpecified,
			Duration:    durationOf(line),
		})
		if len(entries) == maxEducations {
			break
		}
	}
	return entries
}

func mentionsEducation(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range educationWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func extractExperiences(lines []string) []cv.ExperienceEntry {
	entries := make([]cv.ExperienceEntry, 0)
	for _, line := range lines {
		company, ok := companyOf(line)
		if !ok {
			continue
		}

		entries = append(entries, cv.ExperienceEntry{
			Company:  company,
			Role:     cv.NotSpecified,
			Duration: durationOf(line),
		})
		if len(entries) == maxExperiences {
			break
		}
	}
	return entries
}

// companyOf accepts capitalized, non-bullet lines of bounded length and keeps
// the part before the first separator ("Acme Corp – Engineer").
func companyOf(line string) (string, bool) {
	if line == "" || bulletPrefix.MatchString(line) {
		return "", false
	}

	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return "", false
	}

	company := line
	if loc := companySplit.FindStringIndex(line); loc != nil {
		company = line[:loc[0]]
	}
	company = strings.TrimSpace(yearRange.ReplaceAllString(company, ""))

	n := utf8.RuneCountInString(company)
	if n < 2 || n > maxCompanyLength || strings.HasSuffix(company, ".") {
		return "", false
	}
	return company, true
}

func durationOf(line string) string {
	m := yearRange.FindStringSubmatch(line)
	if m == nil {
		return cv.NotSpecified
	}
	end := m[2]
	if _, err := strconv.Atoi(end); err != nil {
		end = "Present"
	}
	return m[1] + " - " + end
}

func truncate(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:limit]))
}
