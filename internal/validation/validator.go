// Package validation implements the rule engine shared by the authoring
// preview path and the authoritative ingestion path. Both call the same
// Validate so client- and server-side behavior cannot drift.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/formhive/formhive/internal/models"
)

// emailPattern accepts a single local@domain address with at least one dot
// in the domain part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the outcome of validating one value against one field
// definition.
type Result struct {
	Valid   bool
	Message string
}

func valid() Result { return Result{Valid: true} }

func invalid(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// IsEmpty reports whether a submitted value counts as absent. Only nil,
// empty strings and empty arrays do; 0 and false are real answers.
func IsEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}

// Validate applies the rule set for a single field, first failure wins:
// presence, then the per-type rule branch. Values come straight from decoded
// JSON, so strings, bools, numbers and arrays are all possible.
func Validate(field models.FormField, value interface{}) Result {
	if IsEmpty(value) {
		if field.Required {
			return invalid("%s is required", field.Label)
		}
		return valid()
	}

	switch field.Type {
	case models.FieldEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return invalid("%s must be a valid email", field.Label)
		}
	case models.FieldText, models.FieldTextarea:
		if field.Rules == nil {
			break
		}
		s, _ := value.(string)
		length := utf8.RuneCountInString(s)
		if field.Rules.MinLength != nil && length < *field.Rules.MinLength {
			return invalid("%s must be at least %d characters", field.Label, *field.Rules.MinLength)
		}
		if field.Rules.MaxLength != nil && length > *field.Rules.MaxLength {
			return invalid("%s must be at most %d characters", field.Label, *field.Rules.MaxLength)
		}
	case models.FieldSelect, models.FieldRadio:
		s, ok := value.(string)
		if !ok || !field.HasOption(s) {
			return invalid("%s has an invalid option selected", field.Label)
		}
	case models.FieldCheckbox:
		items, ok := asStringSlice(value)
		if !ok {
			return invalid("%s has an invalid option selected", field.Label)
		}
		for _, item := range items {
			if !field.HasOption(item) {
				return invalid("%s has an invalid option selected", field.Label)
			}
		}
	case models.FieldFile:
		// File values only carry the stored blob key here; byte-level
		// constraints are checked at the upload boundary via CheckFile.
	}
	return valid()
}

// CheckFile applies a file field's declared constraints to upload metadata.
// It is the boundary-side half of the file rule: the engine owns the rule,
// the upload collaborator supplies the bytes.
func CheckFile(field models.FormField, size int64, mimeType string) Result {
	if field.Type != models.FieldFile || field.File == nil {
		return valid()
	}
	if field.File.MaxFileSize > 0 && size > field.File.MaxFileSize {
		return invalid("%s exceeds the maximum file size", field.Label)
	}
	if len(field.File.FileTypes) > 0 {
		for _, t := range field.File.FileTypes {
			if t == mimeType {
				return valid()
			}
		}
		return invalid("%s has an unsupported file type", field.Label)
	}
	return valid()
}

// ValidateAll checks every field defined on the form against the submitted
// values and returns one entry per failing field. Form fields missing from
// the submission are validated as absent; submitted ids that match no field
// are ignored.
func ValidateAll(form *models.Form, values map[string]interface{}) []models.FieldError {
	var details []models.FieldError
	for _, field := range form.Fields {
		result := Validate(field, values[field.ID])
		if !result.Valid {
			details = append(details, models.FieldError{Field: field.ID, Message: result.Message})
		}
	}
	return details
}

func asStringSlice(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
