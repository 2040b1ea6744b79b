package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-extractor/internal/cv"
	"github.com/spigell/cv-extractor/internal/extraction"
)

func sampleResults() []*extraction.Result {
	return []*extraction.Result{
		{
			ID:          "req-1",
			Source:      "jane.pdf",
			AppliedJob:  "Data Analyst",
			RequesterID: 7,
			Strategy:    extraction.StrategyGenerative,
			Attempts:    1,
			Record: cv.Record{
				Name:            "Jane Doe",
				JobTitle:        "Analyst",
				TechnicalSkills: []string{"Python", "SQL"},
				Educations: []cv.EducationEntry{
					{Institution: "State University", Degree: "BSc", Duration: "2018 - 2022"},
				},
				ProfessionalExperiences: []cv.ExperienceEntry{
					{Company: "Acme", Role: "Analyst", Duration: cv.NotSpecified, Description: "Reports"},
					{Company: "Globex", Role: cv.NotSpecified, Duration: cv.NotSpecified},
				},
			},
		},
		nil,
		{
			ID:       "req-2",
			Source:   "scan.pdf",
			Strategy: extraction.StrategyNone,
			Attempts: 3,
			Record:   cv.ErrorRecord("", "generation failed: quota exceeded"),
		},
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := Write(sampleResults(), path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(CandidatesSheet)
	if err != nil {
		t.Fatalf("read candidates: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 candidates, got %d rows", len(rows))
	}
	first := rows[1]
	if first[0] != "req-1" || first[1] != "jane.pdf" || first[3] != "7" || first[4] != "Jane Doe" {
		t.Fatalf("unexpected first row %v", first)
	}
	if first[6] != "Python, SQL" || first[7] != "generative" || first[9] != "no" {
		t.Fatalf("unexpected first row details %v", first)
	}
	second := rows[2]
	if second[4] != cv.ParseErrorName || second[9] != "yes" || second[10] != "generation failed: quota exceeded" {
		t.Fatalf("unexpected failure row %v", second)
	}

	education, err := f.GetRows(EducationSheet)
	if err != nil {
		t.Fatalf("read education: %v", err)
	}
	if len(education) != 2 || education[1][2] != "State University" || education[1][4] != "2018 - 2022" {
		t.Fatalf("unexpected education rows %v", education)
	}

	experience, err := f.GetRows(ExperienceSheet)
	if err != nil {
		t.Fatalf("read experience: %v", err)
	}
	if len(experience) != 3 || experience[2][2] != "Globex" {
		t.Fatalf("unexpected experience rows %v", experience)
	}
}

func TestWriteAddsExtension(t *testing.T) {
	base := filepath.Join(t.TempDir(), "report")
	if err := Write(nil, base); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if _, err := os.Stat(base + ".xlsx"); err != nil {
		t.Fatalf("expected workbook with extension: %v", err)
	}
}

func TestWriteRequiresPath(t *testing.T) {
	if err := Write(nil, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
