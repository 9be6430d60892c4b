package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formhive/formhive/internal/models"
	"github.com/formhive/formhive/internal/store"
	"github.com/formhive/formhive/internal/validation"
)

// FormService owns the form definition lifecycle: create, edit, publish,
// duplicate, delete.
type FormService struct {
	store *store.Store
}

func NewFormService(st *store.Store) *FormService {
	return &FormService{store: st}
}

// Create validates and persists a new draft form.
func (fs *FormService) Create(req *models.FormRequest) (*models.Form, error) {
	form := &models.Form{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Fields:      req.Fields,
		Settings:    models.DefaultSettings(),
		Status:      models.StatusDraft,
	}
	if req.Settings != nil {
		form.Settings = req.Settings.Clone()
	}
	applySettingsDefaults(&form.Settings)

	if details := validateDefinition(form); len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}
	form.NormalizeFieldOrder()

	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	if err := fs.store.CreateForm(form); err != nil {
		return nil, &PersistenceError{Op: "create form", Err: err}
	}
	return form, nil
}

// Update replaces a form's definition. Lifecycle state, the submissions
// counter and creation time are preserved; settings are replaced wholesale.
func (fs *FormService) Update(id string, req *models.FormRequest) (*models.Form, error) {
	form, err := fs.Get(id)
	if err != nil {
		return nil, err
	}

	form.Title = strings.TrimSpace(req.Title)
	form.Description = req.Description
	form.Fields = req.Fields
	if req.Settings != nil {
		form.Settings = req.Settings.Clone()
	}
	applySettingsDefaults(&form.Settings)

	if details := validateDefinition(form); len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}
	form.NormalizeFieldOrder()
	form.UpdatedAt = time.Now().UTC()

	if err := fs.store.UpdateForm(form); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, &PersistenceError{Op: "update form", Err: err}
	}
	return form, nil
}

// Get loads one form by id.
func (fs *FormService) Get(id string) (*models.Form, error) {
	form, err := fs.store.GetForm(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, &PersistenceError{Op: "load form", Err: err}
	}
	return form, nil
}

// List returns every form, most recently updated first.
func (fs *FormService) List() ([]*models.Form, error) {
	forms, err := fs.store.ListForms()
	if err != nil {
		return nil, &PersistenceError{Op: "list forms", Err: err}
	}
	return forms, nil
}

// Delete removes a form and all of its submissions.
func (fs *FormService) Delete(id string) error {
	if err := fs.store.DeleteForm(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrFormNotFound
		}
		return &PersistenceError{Op: "delete form", Err: err}
	}
	return nil
}

// Publish flips a form to published and stamps publishedAt on the
// transition. Publishing an already published form is a no-op.
func (fs *FormService) Publish(id string) (*models.Form, error) {
	form, err := fs.Get(id)
	if err != nil {
		return nil, err
	}
	if form.Status == models.StatusPublished {
		return form, nil
	}

	now := time.Now().UTC()
	form.Status = models.StatusPublished
	form.PublishedAt = &now
	form.UpdatedAt = now

	if err := fs.store.UpdateForm(form); err != nil {
		return nil, &PersistenceError{Op: "publish form", Err: err}
	}
	return form, nil
}

// Unpublish reverts a form to draft and clears publishedAt. Fields and
// collected submissions are untouched.
func (fs *FormService) Unpublish(id string) (*models.Form, error) {
	form, err := fs.Get(id)
	if err != nil {
		return nil, err
	}

	form.Status = models.StatusDraft
	form.PublishedAt = nil
	form.UpdatedAt = time.Now().UTC()

	if err := fs.store.UpdateForm(form); err != nil {
		return nil, &PersistenceError{Op: "unpublish form", Err: err}
	}
	return form, nil
}

// Duplicate clones a form under a fresh identity: draft status, zero
// submissions, fields and settings copied by value.
func (fs *FormService) Duplicate(id string) (*models.Form, error) {
	src, err := fs.Get(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	clone := &models.Form{
		ID:          uuid.New().String(),
		Title:       src.Title + " (Copy)",
		Description: src.Description,
		Fields:      src.CloneFields(),
		Settings:    src.Settings.Clone(),
		Status:      models.StatusDraft,
		Submissions: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := fs.store.CreateForm(clone); err != nil {
		return nil, &PersistenceError{Op: "duplicate form", Err: err}
	}
	return clone, nil
}

// Steps partitions a form's fields for multi-step rendering. Single-step
// forms get all fields in one step.
func (fs *FormService) Steps(form *models.Form) [][]models.FormField {
	if form.Settings.IsMultiStep && len(form.Settings.Steps) > 0 {
		return validation.PartitionSteps(form.Fields, form.Settings.Steps)
	}
	return [][]models.FormField{form.Fields}
}

func applySettingsDefaults(s *models.FormSettings) {
	if strings.TrimSpace(s.ThankYouMessage) == "" {
		s.ThankYouMessage = models.DefaultThankYouMessage
	}
}

// validateDefinition checks a form definition and returns one entry per
// problem, keyed by field id where one exists.
func validateDefinition(form *models.Form) []models.FieldError {
	var details []models.FieldError

	if form.Title == "" {
		details = append(details, models.FieldError{Field: "title", Message: "Title is required"})
	}
	if form.Settings.SubmissionLimit != nil && *form.Settings.SubmissionLimit <= 0 {
		details = append(details, models.FieldError{Field: "settings.submissionLimit", Message: "Submission limit must be a positive number"})
	}

	seen := make(map[string]bool, len(form.Fields))
	for i, field := range form.Fields {
		key := field.ID
		if key == "" {
			key = fmt.Sprintf("fields[%d]", i)
			details = append(details, models.FieldError{Field: key, Message: "Field id is required"})
		} else if seen[key] {
			details = append(details, models.FieldError{Field: key, Message: "Field id must be unique"})
		}
		seen[key] = true

		if !models.KnownType(field.Type) {
			details = append(details, models.FieldError{Field: key, Message: fmt.Sprintf("Unsupported field type: %s", field.Type)})
			continue
		}
		if strings.TrimSpace(field.Label) == "" {
			details = append(details, models.FieldError{Field: key, Message: "Field label is required"})
		}
		spec, _ := models.TypeSpec(field.Type)
		if spec.SupportsOptions && len(field.Options) == 0 {
			details = append(details, models.FieldError{Field: key, Message: "Field requires at least one option"})
		}
		if field.Rules != nil && field.Rules.MinLength != nil && field.Rules.MaxLength != nil &&
			*field.Rules.MinLength > *field.Rules.MaxLength {
			details = append(details, models.FieldError{Field: key, Message: "Minimum length cannot exceed maximum length"})
		}
	}
	return details
}
