package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formhive/formhive/internal/config"
	"github.com/formhive/formhive/internal/handlers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "test.db"))
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			Host:        "127.0.0.1",
			CORSOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{Type: "sqlite", Database: dsn},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *handlers.Server {
	t.Helper()
	server, err := handlers.NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { server.Shutdown() })
	return server
}

func doJSON(t *testing.T, server *handlers.Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func contactForm() map[string]interface{} {
	return map[string]interface{}{
		"title": "Contact",
		"fields": []map[string]interface{}{
			{"id": "name", "type": "text", "label": "Name", "required": true, "order": 0},
			{"id": "color", "type": "select", "label": "Color", "options": []string{"Red", "Blue"}, "order": 1},
		},
	}
}

func createForm(t *testing.T, server *handlers.Server, payload map[string]interface{}) string {
	t.Helper()
	w := doJSON(t, server, http.MethodPost, "/api/forms", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	return body["form"].(map[string]interface{})["id"].(string)
}

func publish(t *testing.T, server *handlers.Server, formID string) {
	t.Helper()
	w := doJSON(t, server, http.MethodPatch, "/api/forms/"+formID+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	w := doJSON(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestCreateFormInvalidDefinition(t *testing.T) {
	server := newTestServer(t, testConfig(t))

	w := doJSON(t, server, http.MethodPost, "/api/forms", map[string]interface{}{
		"title": "",
		"fields": []map[string]interface{}{
			{"id": "f1", "type": "select", "label": "Pick"},
		},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["error"])
	details := body["details"].([]interface{})
	require.NotEmpty(t, details)
	first := details[0].(map[string]interface{})
	assert.Equal(t, "title", first["field"])
}

func TestSubmitLifecycle(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())

	submission := map[string]interface{}{
		"formId": formID,
		"fields": []map[string]interface{}{
			{"fieldId": "name", "value": "Alice"},
			{"fieldId": "color", "value": "Blue"},
		},
	}

	// Draft forms never accept submissions.
	w := doJSON(t, server, http.MethodPost, "/api/submissions", submission)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Form is not published", decode(t, w)["error"])

	publish(t, server, formID)

	w = doJSON(t, server, http.MethodPost, "/api/submissions", submission)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	sub := body["submission"].(map[string]interface{})
	assert.Equal(t, "pending", sub["status"])

	w = doJSON(t, server, http.MethodGet, "/api/forms/"+formID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decode(t, w)["form"].(map[string]interface{})
	assert.Equal(t, float64(1), form["submissions"])
}

func TestSubmitUnknownForm(t *testing.T) {
	server := newTestServer(t, testConfig(t))

	w := doJSON(t, server, http.MethodPost, "/api/submissions", map[string]interface{}{
		"formId": "missing",
		"fields": []map[string]interface{}{{"fieldId": "name", "value": "x"}},
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Form not found", body["error"])
}

func TestSubmitValidationDetails(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())
	publish(t, server, formID)

	w := doJSON(t, server, http.MethodPost, "/api/submissions", map[string]interface{}{
		"formId": formID,
		"fields": []map[string]interface{}{{"fieldId": "name", "value": ""}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Validation failed", body["error"])
	details := body["details"].([]interface{})
	require.Len(t, details, 1)
	detail := details[0].(map[string]interface{})
	assert.Equal(t, "name", detail["field"])
	assert.Equal(t, "Name is required", detail["message"])
}

func TestGetFormIncludesSteps(t *testing.T) {
	server := newTestServer(t, testConfig(t))

	fields := make([]map[string]interface{}, 0, 7)
	for i := 0; i < 7; i++ {
		fields = append(fields, map[string]interface{}{
			"id":    fmt.Sprintf("f%d", i),
			"type":  "text",
			"label": fmt.Sprintf("Question %d", i),
			"order": i,
		})
	}
	formID := createForm(t, server, map[string]interface{}{
		"title":  "Wizard",
		"fields": fields,
		"settings": map[string]interface{}{
			"isMultiStep": true,
			"steps":       []string{"About", "Details", "Finish"},
		},
	})

	w := doJSON(t, server, http.MethodGet, "/api/forms/"+formID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	steps := decode(t, w)["steps"].([]interface{})
	require.Len(t, steps, 3)
	assert.Len(t, steps[0].([]interface{}), 3)
	assert.Len(t, steps[1].([]interface{}), 3)
	assert.Len(t, steps[2].([]interface{}), 1)
}

func TestDeleteForm(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())

	w := doJSON(t, server, http.MethodDelete, "/api/forms/"+formID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/forms/"+formID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDuplicateForm(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())
	publish(t, server, formID)

	w := doJSON(t, server, http.MethodPost, "/api/forms/"+formID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	copied := decode(t, w)["form"].(map[string]interface{})
	assert.Equal(t, "Contact (Copy)", copied["title"])
	assert.Equal(t, "draft", copied["status"])
	assert.NotEqual(t, formID, copied["id"])
}

func TestAnalyticsEndpoint(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())
	publish(t, server, formID)

	w := doJSON(t, server, http.MethodPost, "/api/submissions", map[string]interface{}{
		"formId": formID,
		"fields": []map[string]interface{}{{"fieldId": "name", "value": "Alice"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Unknown period tokens fall back to 30 days.
	w = doJSON(t, server, http.MethodGet, "/api/analytics/form/"+formID+"?period=bogus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode(t, w)["analytics"].(map[string]interface{})
	assert.Len(t, report["dailyStats"].([]interface{}), 31)
	assert.Equal(t, float64(1), report["periodSubmissions"])
	assert.Equal(t, float64(1), report["totalSubmissions"])
}

func TestExportEndpoint(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())
	publish(t, server, formID)

	w := doJSON(t, server, http.MethodGet, "/api/analytics/form/"+formID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Submission ID,"))

	w = doJSON(t, server, http.MethodGet, "/api/analytics/form/"+formID+"/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/analytics/form/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSubmissionsEndpoint(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	formID := createForm(t, server, contactForm())
	publish(t, server, formID)

	for i := 0; i < 3; i++ {
		w := doJSON(t, server, http.MethodPost, "/api/submissions", map[string]interface{}{
			"formId": formID,
			"fields": []map[string]interface{}{{"fieldId": "name", "value": fmt.Sprintf("Visitor %d", i)}},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, server, http.MethodGet, "/api/submissions/form/"+formID+"?page=1&pageSize=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["total"])
	assert.Len(t, body["submissions"].([]interface{}), 2)
	assert.Equal(t, float64(2), body["pageSize"])
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimiting = config.RateLimitConfig{
		Enabled:              true,
		WindowMinutes:        15,
		RequestsPerWindow:    3,
		SubmissionsPerWindow: 3,
	}
	server := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		w := doJSON(t, server, http.MethodGet, "/api/forms", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := doJSON(t, server, http.MethodGet, "/api/forms", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotNil(t, body["retry_after"])
}
