package models

import (
	"sort"
	"time"
)

// FormStatus is the publish lifecycle state of a form.
type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
)

// DefaultThankYouMessage is shown after submission when the author has not
// configured one.
const DefaultThankYouMessage = "Thank you for your submission!"

// FormSettings configures submission behavior and presentation. Settings are
// a value type: every edit replaces the whole record on the owning form.
type FormSettings struct {
	ThankYouMessage          string   `json:"thankYouMessage"`
	SubmissionLimit          *int64   `json:"submissionLimit,omitempty"`
	AllowMultipleSubmissions bool     `json:"allowMultipleSubmissions"`
	RedirectURL              string   `json:"redirectUrl,omitempty"`
	IsMultiStep              bool     `json:"isMultiStep"`
	Steps                    []string `json:"steps,omitempty"`
}

// DefaultSettings returns the settings applied to a new form.
func DefaultSettings() FormSettings {
	return FormSettings{ThankYouMessage: DefaultThankYouMessage}
}

// Clone returns a deep copy of the settings.
func (s FormSettings) Clone() FormSettings {
	out := s
	if s.SubmissionLimit != nil {
		v := *s.SubmissionLimit
		out.SubmissionLimit = &v
	}
	if s.Steps != nil {
		out.Steps = append([]string(nil), s.Steps...)
	}
	return out
}

// Form is the authored definition of a data-collection instrument.
// Submissions is a denormalized counter of accepted submissions kept in sync
// by the ingestion and deletion paths.
type Form struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []FormField  `json:"fields"`
	Settings    FormSettings `json:"settings"`
	Status      FormStatus   `json:"status"`
	Submissions int64        `json:"submissions"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
}

// FieldByID returns the field with the given id, if present.
func (f *Form) FieldByID(id string) (*FormField, bool) {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i], true
		}
	}
	return nil, false
}

// NormalizeFieldOrder re-derives the dense 0..n-1 ordering from the fields'
// current relative order. Every mutation of the field list goes through here
// so order values always match sequence positions.
func (f *Form) NormalizeFieldOrder() {
	sort.SliceStable(f.Fields, func(i, j int) bool {
		return f.Fields[i].Order < f.Fields[j].Order
	})
	for i := range f.Fields {
		f.Fields[i].Order = i
	}
}

// CloneFields returns a deep copy of the field list.
func (f *Form) CloneFields() []FormField {
	if f.Fields == nil {
		return nil
	}
	out := make([]FormField, len(f.Fields))
	for i, field := range f.Fields {
		out[i] = field.Clone()
	}
	return out
}
