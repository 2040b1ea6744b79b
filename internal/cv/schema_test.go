package cv

import (
	"strings"
	"testing"
)

func TestCheckResponse(t *testing.T) {
	t.Parallel()

	valid, _ := Decode([]byte(`{"name":"Alex","jobTitle":"Dev","technicalSkills":["Go"],"educations":[],"professionalExperiences":[]}`))
	if err := CheckResponse(valid); err != nil {
		t.Fatalf("expected conformant response, got %v", err)
	}

	missing, _ := Decode([]byte(`{"name":"Alex","technicalSkills":"Go"}`))
	if err := CheckResponse(missing); err == nil {
		t.Fatal("expected contract violation")
	}
}

func TestCheckRecordDetectsViolations(t *testing.T) {
	t.Parallel()

	record := Candidate{Name: "A", TechnicalSkills: []string{"Go", "Go"}}.Record("")
	if err := CheckRecord(record); err == nil || !strings.Contains(err.Error(), "invariants") {
		t.Fatalf("expected duplicate skills to violate invariants, got %v", err)
	}

	record = Candidate{Name: "A", Educations: []EducationEntry{{Institution: ""}}}.Record("")
	if err := CheckRecord(record); err == nil {
		t.Fatal("expected empty institution to violate invariants")
	}
}

func TestResponseShapeIsJSON(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(ResponseShape())); err != nil {
		t.Fatalf("response shape is not valid json: %v", err)
	}
}
