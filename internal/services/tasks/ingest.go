package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
)

// Sample is one uploaded object. Only the recognized keys are read.
type Sample map[string]any

// ParseSamples decodes payload as a JSON array of objects
func ParseSamples(payload []byte) ([]Sample, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, apperrors.NewValidationError("dataset_file", "must be a JSON array of objects: "+err.Error())
	}
	if raw == nil {
		return nil, apperrors.NewValidationError("dataset_file", "must be a JSON array of objects")
	}
	if dec.More() {
		return nil, apperrors.NewValidationError("dataset_file", "unexpected data after the array")
	}

	samples := make([]Sample, 0, len(raw))
	for i, item := range raw {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, apperrors.NewValidationError("dataset_file", fmt.Sprintf("item %d is not an object", i))
		}
		itemDec := json.NewDecoder(bytes.NewReader(trimmed))
		itemDec.UseNumber()
		var s Sample
		if err := itemDec.Decode(&s); err != nil {
			return nil, apperrors.NewValidationError("dataset_file", fmt.Sprintf("item %d: %v", i, err))
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// field reads key as text. Absent and null read as "".
func (s Sample) field(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Template builds the template record for s with a fresh sample id
func (s Sample) Template() models.AnnotationRecord {
	return models.AnnotationRecord{
		SampleID:   uuid.NewString(),
		Language:   s.field("language"),
		Code:       s.field("code"),
		Repo:       s.field("repo"),
		Path:       s.field("path"),
		Query:      s.field("query"),
		Diagram:    s.field("diagram"),
		Version:    s.field("version"),
		TextAnswer: s.field("text_answer"),
		IsTemplate: true,
		Annotator:  "",
		Nodes:      nil,
		Missing:    models.StringList{},
		Notes:      "",
		Status:     models.StatusNotAnnotated,
	}
}
