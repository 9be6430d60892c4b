package models

import (
	"encoding/json"
)

// FieldType identifies one of the supported field kinds. The set is closed;
// definitions carrying any other value are rejected at save time.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// FieldSpec describes which configuration a field type supports.
type FieldSpec struct {
	SupportsOptions         bool
	SupportsValidationRules bool
	SupportsFileConstraints bool
}

var fieldSpecs = map[FieldType]FieldSpec{
	FieldText:     {SupportsValidationRules: true},
	FieldEmail:    {SupportsValidationRules: true},
	FieldTextarea: {SupportsValidationRules: true},
	FieldSelect:   {SupportsOptions: true},
	FieldRadio:    {SupportsOptions: true},
	FieldCheckbox: {SupportsOptions: true},
	FieldFile:     {SupportsFileConstraints: true},
}

// TypeSpec returns the capability record for a field type, and whether the
// type is part of the supported set.
func TypeSpec(t FieldType) (FieldSpec, bool) {
	spec, ok := fieldSpecs[t]
	return spec, ok
}

// KnownType reports whether t is one of the supported field types.
func KnownType(t FieldType) bool {
	_, ok := fieldSpecs[t]
	return ok
}

// FieldTypes returns the supported field types.
func FieldTypes() []FieldType {
	return []FieldType{FieldText, FieldEmail, FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox, FieldFile}
}

// TextRules holds the length/pattern constraints for text, textarea and
// email fields.
type TextRules struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// FileRules holds the upload constraints for file fields.
type FileRules struct {
	FileTypes   []string `json:"fileTypes,omitempty"`
	MaxFileSize int64    `json:"maxFileSize,omitempty"`
}

// FormField is one configurable input unit within a form. The per-type
// configuration is tagged on Type: Rules is set only for text-like fields,
// Options only for choice fields and File only for file fields. The JSON
// codec below keeps the flat wire shape the builder UI sends while dropping
// any attribute the declared type does not support.
type FormField struct {
	ID          string
	Type        FieldType
	Label       string
	Placeholder string
	Required    bool
	Order       int

	Rules   *TextRules
	Options []string
	File    *FileRules
}

type fieldJSON struct {
	ID          string     `json:"id"`
	Type        FieldType  `json:"type"`
	Label       string     `json:"label"`
	Placeholder string     `json:"placeholder,omitempty"`
	Required    bool       `json:"required"`
	Validation  *TextRules `json:"validation,omitempty"`
	Options     []string   `json:"options,omitempty"`
	FileTypes   []string   `json:"fileTypes,omitempty"`
	MaxFileSize int64      `json:"maxFileSize,omitempty"`
	Order       int        `json:"order"`
}

func (f FormField) MarshalJSON() ([]byte, error) {
	out := fieldJSON{
		ID:          f.ID,
		Type:        f.Type,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Required:    f.Required,
		Order:       f.Order,
	}
	spec, _ := TypeSpec(f.Type)
	if spec.SupportsValidationRules {
		out.Validation = f.Rules
	}
	if spec.SupportsOptions {
		out.Options = f.Options
	}
	if spec.SupportsFileConstraints && f.File != nil {
		out.FileTypes = f.File.FileTypes
		out.MaxFileSize = f.File.MaxFileSize
	}
	return json.Marshal(out)
}

func (f *FormField) UnmarshalJSON(data []byte) error {
	var in fieldJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = FormField{
		ID:          in.ID,
		Type:        in.Type,
		Label:       in.Label,
		Placeholder: in.Placeholder,
		Required:    in.Required,
		Order:       in.Order,
	}
	spec, ok := TypeSpec(in.Type)
	if !ok {
		// Unknown types keep no configuration; definition validation
		// rejects them before they are stored.
		return nil
	}
	if spec.SupportsValidationRules {
		f.Rules = in.Validation
	}
	if spec.SupportsOptions {
		f.Options = in.Options
	}
	if spec.SupportsFileConstraints && (len(in.FileTypes) > 0 || in.MaxFileSize > 0) {
		f.File = &FileRules{FileTypes: in.FileTypes, MaxFileSize: in.MaxFileSize}
	}
	return nil
}

// HasOption reports whether v is one of the field's configured options.
func (f *FormField) HasOption(v string) bool {
	for _, opt := range f.Options {
		if opt == v {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the field.
func (f FormField) Clone() FormField {
	out := f
	if f.Rules != nil {
		rules := *f.Rules
		if f.Rules.MinLength != nil {
			v := *f.Rules.MinLength
			rules.MinLength = &v
		}
		if f.Rules.MaxLength != nil {
			v := *f.Rules.MaxLength
			rules.MaxLength = &v
		}
		if f.Rules.Min != nil {
			v := *f.Rules.Min
			rules.Min = &v
		}
		if f.Rules.Max != nil {
			v := *f.Rules.Max
			rules.Max = &v
		}
		out.Rules = &rules
	}
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	if f.File != nil {
		file := *f.File
		file.FileTypes = append([]string(nil), f.File.FileTypes...)
		out.File = &file
	}
	return out
}
