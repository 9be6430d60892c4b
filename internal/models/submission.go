package models

import (
	"time"
)

// SubmissionStatus is the downstream processing state of a submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionProcessed SubmissionStatus = "processed"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionField is one answered field. FieldType is copied from the form
// definition at ingestion time so analytics can interpret values even after
// the field is later edited or removed.
type SubmissionField struct {
	FieldID   string      `json:"fieldId"`
	Value     interface{} `json:"value"`
	FieldType FieldType   `json:"fieldType"`
}

// SubmissionMetadata is capture-time request context, immutable after
// creation.
type SubmissionMetadata struct {
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Submission is one accepted response against a published form.
type Submission struct {
	ID       string             `json:"id"`
	FormID   string             `json:"formId"`
	Fields   []SubmissionField  `json:"fields"`
	Metadata SubmissionMetadata `json:"metadata"`
	Status   SubmissionStatus   `json:"status"`
}

// FieldValue returns the submitted value for a field id, if an answer was
// recorded for it.
func (s *Submission) FieldValue(fieldID string) (interface{}, bool) {
	for _, f := range s.Fields {
		if f.FieldID == fieldID {
			return f.Value, true
		}
	}
	return nil, false
}
