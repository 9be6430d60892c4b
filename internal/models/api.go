package models

// FormRequest is the client payload for creating or updating a form.
// Server-managed fields (id, status, counters, timestamps) are never taken
// from the request.
type FormRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Fields      []FormField   `json:"fields"`
	Settings    *FormSettings `json:"settings"`
}

// SubmissionValue is one submitted answer.
type SubmissionValue struct {
	FieldID string      `json:"fieldId" binding:"required"`
	Value   interface{} `json:"value"`
}

// SubmissionRequest is the public submission payload.
type SubmissionRequest struct {
	FormID string            `json:"formId" binding:"required"`
	Fields []SubmissionValue `json:"fields" binding:"required"`
}

// FieldError points a validation failure at a specific input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the shared error envelope. Details is present only for
// field-level problems; whole-request errors carry just the summary.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}
