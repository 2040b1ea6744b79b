package cv

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is the contract the generative backend is asked to honour.
// A mismatch is reported but never blocks normalization.
const responseSchema = `{
  "type": "object",
  "required": ["name", "jobTitle", "educations", "technicalSkills", "professionalExperiences"],
  "properties": {
    "name": {"type": "string"},
    "jobTitle": {"type": "string"},
    "technicalSkills": {"type": "array", "items": {"type": "string"}},
    "educations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "institution": {"type": "string"},
          "degree": {"type": "string"},
          "duration": {"type": "string"},
          "details": {"type": "string"}
        }
      }
    },
    "professionalExperiences": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "company": {"type": "string"},
          "role": {"type": "string"},
          "duration": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

// recordSchema encodes the invariants every produced Record must hold.
const recordSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["name", "jobTitle", "educations", "technicalSkills", "professionalExperiences", "rawText"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "jobTitle": {"type": "string", "minLength": 1},
    "rawText": {"type": "string"},
    "extractionError": {"type": "string", "minLength": 1},
    "technicalSkills": {
      "type": "array",
      "uniqueItems": true,
      "items": {"type": "string", "pattern": "\\S"}
    },
    "educations": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["institution", "degree", "duration", "details"],
        "properties": {
          "institution": {"type": "string", "minLength": 1},
          "degree": {"type": "string", "minLength": 1},
          "duration": {"type": "string", "minLength": 1},
          "details": {"type": "string"}
        }
      }
    },
    "professionalExperiences": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["company", "role", "duration", "description"],
        "properties": {
          "company": {"type": "string", "minLength": 1},
          "role": {"type": "string", "minLength": 1},
          "duration": {"type": "string", "minLength": 1},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

var (
	compiledResponse = jsonschema.MustCompileString("response.json", responseSchema)
	compiledRecord   = jsonschema.MustCompileString("record.json", recordSchema)
)

// ResponseShape returns the response contract as JSON for embedding into prompts.
func ResponseShape() string {
	return responseSchema
}

// CheckResponse reports whether a decoded backend response matches the contract.
func CheckResponse(v Value) error {
	if err := compiledResponse.Validate(v.Interface()); err != nil {
		return fmt.Errorf("response does not match contract: %w", err)
	}
	return nil
}

// CheckRecord verifies the output invariants of a record.
func CheckRecord(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}

	if err := compiledRecord.Validate(doc); err != nil {
		return fmt.Errorf("record violates invariants: %w", err)
	}
	return nil
}
