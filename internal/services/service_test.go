package services_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formhive/formhive/internal/models"
	"github.com/formhive/formhive/internal/services"
	"github.com/formhive/formhive/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "test.db"))
	st, err := store.OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newServices(t *testing.T) (*services.FormService, *services.SubmissionService, *services.AnalyticsService, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	forms := services.NewFormService(st)
	subs := services.NewSubmissionService(st)
	analytics := services.NewAnalyticsService(st, forms)
	return forms, subs, analytics, st
}

func nameAndColorRequest() *models.FormRequest {
	return &models.FormRequest{
		Title: "Contact",
		Fields: []models.FormField{
			{ID: "name", Type: models.FieldText, Label: "Name", Required: true, Order: 0},
			{ID: "color", Type: models.FieldSelect, Label: "Color", Options: []string{"Red", "Blue"}, Order: 1},
		},
	}
}

func publishForm(t *testing.T, forms *services.FormService, req *models.FormRequest) *models.Form {
	t.Helper()
	form, err := forms.Create(req)
	require.NoError(t, err)
	form, err = forms.Publish(form.ID)
	require.NoError(t, err)
	return form
}

func submitValues(t *testing.T, subs *services.SubmissionService, formID string, values map[string]interface{}) *models.Submission {
	t.Helper()
	req := &models.SubmissionRequest{FormID: formID}
	for id, v := range values {
		req.Fields = append(req.Fields, models.SubmissionValue{FieldID: id, Value: v})
	}
	sub, err := subs.Submit(req, models.SubmissionMetadata{IPAddress: "203.0.113.9", UserAgent: "test-agent"})
	require.NoError(t, err)
	return sub
}
