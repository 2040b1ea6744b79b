// Package report exports extraction results as an Excel workbook for manual review.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-extractor/internal/extraction"
)

const (
	CandidatesSheet = "Candidates"
	EducationSheet  = "Education"
	ExperienceSheet = "Experience"
)

var (
	candidateHeader  = []any{"ID", "Source", "Applied Job", "Requester", "Name", "Job Title", "Skills", "Strategy", "Attempts", "Needs Review", "Extraction Error"}
	educationHeader  = []any{"ID", "Name", "Institution", "Degree", "Duration", "Details"}
	experienceHeader = []any{"ID", "Name", "Company", "Role", "Duration", "Description"}
)

// Write stores results in an .xlsx workbook at path, adding the extension when missing.
func Write(results []*extraction.Result, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("report path is required")
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CandidatesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, sheet := range []string{EducationSheet, ExperienceSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	candidates := [][]any{candidateHeader}
	educations := [][]any{educationHeader}
	experiences := [][]any{experienceHeader}

	for _, res := range results {
		if res == nil {
			continue
		}
		rec := res.Record
		candidates = append(candidates, []any{
			res.ID, res.Source, res.AppliedJob, requester(res.RequesterID), rec.Name, rec.JobTitle,
			strings.Join(rec.TechnicalSkills, ", "), string(res.Strategy), res.Attempts,
			yesNo(rec.NeedsReview()), rec.ExtractionError,
		})
		for _, edu := range rec.Educations {
			educations = append(educations, []any{res.ID, rec.Name, edu.Institution, edu.Degree, edu.Duration, edu.Details})
		}
		for _, exp := range rec.ProfessionalExperiences {
			experiences = append(experiences, []any{res.ID, rec.Name, exp.Company, exp.Role, exp.Duration, exp.Description})
		}
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{CandidatesSheet, candidates},
		{EducationSheet, educations},
		{ExperienceSheet, experiences},
	}
	for _, sheet := range sheets {
		if err := writeRows(f, sheet.name, sheet.rows, headerStyle); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}

	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 24); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func requester(id int64) any {
	if id == 0 {
		return ""
	}
	return id
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
