package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/formhive/formhive/internal/models"
	"github.com/formhive/formhive/internal/store"
	"github.com/formhive/formhive/internal/validation"
)

// DefaultPageSize is the submission listing page size when the caller does
// not ask for one.
const DefaultPageSize = 20

// MaxPageSize caps a single listing page.
const MaxPageSize = 100

// SubmissionService runs the ingestion pipeline and manages stored
// submissions.
type SubmissionService struct {
	store *store.Store
}

func NewSubmissionService(st *store.Store) *SubmissionService {
	return &SubmissionService{store: st}
}

// Submit runs the full ingestion pipeline: form lookup, publish gate,
// submission-limit gate, validation of every field, then persistence.
// Validation completes (and fails closed) before anything is written; the
// submission insert and the counter increment share one transaction.
func (ss *SubmissionService) Submit(req *models.SubmissionRequest, meta models.SubmissionMetadata) (*models.Submission, error) {
	form, err := ss.store.GetForm(req.FormID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, &PersistenceError{Op: "load form", Err: err}
	}

	if form.Status != models.StatusPublished {
		return nil, ErrFormNotPublished
	}
	if limit := form.Settings.SubmissionLimit; limit != nil && form.Submissions >= *limit {
		return nil, ErrSubmissionLimit
	}

	values := make(map[string]interface{}, len(req.Fields))
	for _, fv := range req.Fields {
		values[fv.FieldID] = fv.Value
	}

	if details := validation.ValidateAll(form, values); len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	if meta.SubmittedAt.IsZero() {
		meta.SubmittedAt = time.Now().UTC()
	}

	// Answers are stored in field order; ids that match no current field
	// are dropped.
	fields := make([]models.SubmissionField, 0, len(req.Fields))
	for _, field := range form.Fields {
		value, ok := values[field.ID]
		if !ok {
			continue
		}
		fields = append(fields, models.SubmissionField{
			FieldID:   field.ID,
			Value:     value,
			FieldType: field.Type,
		})
	}

	sub := &models.Submission{
		ID:       uuid.New().String(),
		FormID:   form.ID,
		Fields:   fields,
		Metadata: meta,
		Status:   models.SubmissionPending,
	}

	if err := ss.store.CreateSubmission(sub); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, &PersistenceError{Op: "store submission", Err: err}
	}
	return sub, nil
}

// Get loads one submission by id.
func (ss *SubmissionService) Get(id string) (*models.Submission, error) {
	sub, err := ss.store.GetSubmission(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, &PersistenceError{Op: "load submission", Err: err}
	}
	return sub, nil
}

// ListPage is one page of a form's submissions.
type ListPage struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"pageSize"`
}

// List pages through a form's submissions. Page numbers start at 1; sortAsc
// flips the default newest-first ordering.
func (ss *SubmissionService) List(formID string, page, pageSize int, sortAsc bool) (*ListPage, error) {
	if _, err := ss.store.GetForm(formID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, &PersistenceError{Op: "load form", Err: err}
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := ss.store.CountSubmissions(formID)
	if err != nil {
		return nil, &PersistenceError{Op: "count submissions", Err: err}
	}
	subs, err := ss.store.ListSubmissions(formID, pageSize, (page-1)*pageSize, sortAsc)
	if err != nil {
		return nil, &PersistenceError{Op: "list submissions", Err: err}
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	return &ListPage{Submissions: subs, Total: total, Page: page, PageSize: pageSize}, nil
}

// Delete removes one submission; the owning form's counter goes down by
// exactly one in the same transaction.
func (ss *SubmissionService) Delete(id string) error {
	if err := ss.store.DeleteSubmission(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubmissionNotFound
		}
		return &PersistenceError{Op: "delete submission", Err: err}
	}
	return nil
}

// MarkStatus records the downstream processing outcome of a submission.
func (ss *SubmissionService) MarkStatus(id string, status models.SubmissionStatus) error {
	if err := ss.store.UpdateSubmissionStatus(id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubmissionNotFound
		}
		return &PersistenceError{Op: "update submission status", Err: err}
	}
	return nil
}
