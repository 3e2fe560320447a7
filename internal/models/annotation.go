package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Status is the review state of an annotation record
type Status string

const (
	StatusNotAnnotated Status = "Not Annotated"
	StatusInProgress   Status = "In Progress"
	StatusFinalized    Status = "Finalized"
)

// Node categories an annotator can assign diagram nodes to
const (
	CategorySufficiency    = "Sufficiency"
	CategoryCompleteness   = "Completeness"
	CategoryHallucinations = "Hallucinations"
	CategoryVerbosity      = "Verbosity"
)

// Categories lists the fixed node categories in display order
var Categories = []string{
	CategorySufficiency,
	CategoryCompleteness,
	CategoryHallucinations,
	CategoryVerbosity,
}

// AnnotationRecord is either a template (the shared copy of one uploaded
// sample) or an instance (one annotator's working copy of that template).
// Templates and instances share SampleID; the pair (SampleID, Annotator) is
// unique, and templates always carry an empty Annotator.
type AnnotationRecord struct {
	ID        uint   `json:"id" gorm:"primarykey"`
	TaskID    uint   `json:"task_id" gorm:"not null;index"`
	SampleID  string `json:"sample_id" gorm:"not null;size:36;uniqueIndex:idx_sample_annotator"`
	Annotator string `json:"annotator" gorm:"not null;size:255;uniqueIndex:idx_sample_annotator"`

	Language   string `json:"language"`
	Code       string `json:"code" gorm:"type:text"`
	Repo       string `json:"repo"`
	Path       string `json:"path"`
	Query      string `json:"query" gorm:"type:text"`
	Diagram    string `json:"diagram" gorm:"type:text"`
	Version    string `json:"version"`
	TextAnswer string `json:"text_answer" gorm:"type:text"`

	IsTemplate bool       `json:"is_template" gorm:"not null;index"`
	Nodes      Nodes      `json:"nodes" gorm:"type:json"`
	Missing    StringList `json:"missing" gorm:"type:json"`
	Notes      string     `json:"notes" gorm:"type:text"`
	Status     Status     `json:"status" gorm:"not null;size:32;index"`
}

// TableName returns the table name for the AnnotationRecord model
func (AnnotationRecord) TableName() string {
	return "annotation_records"
}

// BeforeCreate fills in the defaults a record must never be stored without
func (a *AnnotationRecord) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusNotAnnotated
	}
	if a.SampleID == "" {
		return fmt.Errorf("annotation record requires a sample id")
	}
	return nil
}

// CloneFor builds the instance annotator starts from. Content fields are
// copied verbatim; the selections are reset.
func (a *AnnotationRecord) CloneFor(annotator string) *AnnotationRecord {
	return &AnnotationRecord{
		TaskID:     a.TaskID,
		SampleID:   a.SampleID,
		Annotator:  annotator,
		Language:   a.Language,
		Code:       a.Code,
		Repo:       a.Repo,
		Path:       a.Path,
		Query:      a.Query,
		Diagram:    a.Diagram,
		Version:    a.Version,
		TextAnswer: a.TextAnswer,
		IsTemplate: false,
		Nodes:      EmptyNodes(),
		Missing:    StringList{},
		Notes:      "",
		Status:     StatusNotAnnotated,
	}
}

// Nodes maps a category name to the ordered node identifiers selected for it.
// A nil Nodes is the placeholder templates carry and is stored as "".
type Nodes map[string][]string

// EmptyNodes returns the selection map a fresh instance starts with
func EmptyNodes() Nodes {
	n := make(Nodes, len(Categories))
	for _, c := range Categories {
		n[c] = []string{}
	}
	return n
}

// Value implements driver.Valuer interface for Nodes
func (n Nodes) Value() (driver.Value, error) {
	if n == nil {
		return "", nil
	}
	return json.Marshal(n)
}

// Scan implements sql.Scanner interface for Nodes. Anything that is not a
// JSON object (the template placeholder, null) reads back as nil.
func (n *Nodes) Scan(value interface{}) error {
	raw, err := rawJSON(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 || raw[0] != '{' {
		*n = nil
		return nil
	}
	return json.Unmarshal(raw, n)
}

// MarshalJSON keeps the placeholder visible as "" to API clients
func (n Nodes) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(map[string][]string(n))
}

// UnmarshalJSON accepts either a category map or the "" placeholder
func (n *Nodes) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] != '{' {
		*n = nil
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = m
	return nil
}

// StringList is an ordered list of identifiers stored as JSON
type StringList []string

// Value implements driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for StringList
func (l *StringList) Scan(value interface{}) error {
	raw, err := rawJSON(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 || raw[0] != '[' {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

func rawJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T for json column", value)
	}
}
