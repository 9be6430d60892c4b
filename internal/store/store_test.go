package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formhive/formhive/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "test.db"))
	st, err := OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleForm(id string) *models.Form {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Form{
		ID:    id,
		Title: "Contact",
		Fields: []models.FormField{
			{ID: "name", Type: models.FieldText, Label: "Name", Required: true},
		},
		Settings:  models.DefaultSettings(),
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Store{driver: "sqlite"}
	assert.Equal(t, "SELECT * FROM forms WHERE id = ?", sqlite.rebind("SELECT * FROM forms WHERE id = ?"))

	pg := &Store{driver: "postgres"}
	assert.Equal(t, "UPDATE forms SET title = $1 WHERE id = $2", pg.rebind("UPDATE forms SET title = ? WHERE id = ?"))
}

func TestFormRoundTrip(t *testing.T) {
	st := openTestStore(t)

	form := sampleForm("f-1")
	require.NoError(t, st.CreateForm(form))

	loaded, err := st.GetForm("f-1")
	require.NoError(t, err)
	assert.Equal(t, "Contact", loaded.Title)
	assert.Equal(t, models.StatusDraft, loaded.Status)
	assert.Equal(t, int64(0), loaded.Submissions)
	assert.Nil(t, loaded.PublishedAt)
	require.Len(t, loaded.Fields, 1)
	assert.Equal(t, models.FieldText, loaded.Fields[0].Type)
	assert.True(t, loaded.Fields[0].Required)
	assert.Equal(t, models.DefaultThankYouMessage, loaded.Settings.ThankYouMessage)
}

func TestUpdateFormNeverTouchesCounter(t *testing.T) {
	st := openTestStore(t)

	form := sampleForm("f-1")
	require.NoError(t, st.CreateForm(form))
	require.NoError(t, st.CreateSubmission(&models.Submission{
		ID:     "s-1",
		FormID: "f-1",
		Metadata: models.SubmissionMetadata{
			SubmittedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		Status: models.SubmissionPending,
	}))

	// The write path carries a stale in-memory counter on purpose.
	form.Title = "Renamed"
	form.Submissions = 0
	require.NoError(t, st.UpdateForm(form))

	loaded, err := st.GetForm("f-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Title)
	assert.Equal(t, int64(1), loaded.Submissions)
}

func TestGetFormNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.GetForm("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(st.UpdateForm(sampleForm("missing")), ErrNotFound))
	assert.True(t, errors.Is(st.DeleteForm("missing"), ErrNotFound))
}

func TestDeleteFormCascadesSubmissions(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.CreateForm(sampleForm("f-1")))
	require.NoError(t, st.CreateSubmission(&models.Submission{
		ID:     "s-1",
		FormID: "f-1",
		Metadata: models.SubmissionMetadata{
			SubmittedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		Status: models.SubmissionPending,
	}))

	require.NoError(t, st.DeleteForm("f-1"))

	_, err := st.GetSubmission("s-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteSubmissionTwiceSkipsDecrement(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.CreateForm(sampleForm("f-1")))
	require.NoError(t, st.CreateSubmission(&models.Submission{
		ID:     "s-1",
		FormID: "f-1",
		Metadata: models.SubmissionMetadata{
			SubmittedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		Status: models.SubmissionPending,
	}))

	require.NoError(t, st.DeleteSubmission("s-1"))
	assert.True(t, errors.Is(st.DeleteSubmission("s-1"), ErrNotFound))

	// Only the delete that removed the row moves the counter; a losing
	// delete must not drive it negative.
	loaded, err := st.GetForm("f-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), loaded.Submissions)
}

func TestCreateSubmissionMissingFormFailsClosed(t *testing.T) {
	st := openTestStore(t)

	err := st.CreateSubmission(&models.Submission{
		ID:     "s-1",
		FormID: "missing",
		Metadata: models.SubmissionMetadata{
			SubmittedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		Status: models.SubmissionPending,
	})
	assert.True(t, errors.Is(err, ErrNotFound))

	// The whole tx rolled back; no orphan row survives.
	_, err = st.GetSubmission("s-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListSubmissionsBetween(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.CreateForm(sampleForm("f-1")))

	times := []time.Time{
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
	}
	for i, at := range times {
		require.NoError(t, st.CreateSubmission(&models.Submission{
			ID:       fmt.Sprintf("s-%d", i),
			FormID:   "f-1",
			Metadata: models.SubmissionMetadata{SubmittedAt: at},
			Status:   models.SubmissionPending,
		}))
	}

	subs, err := st.ListSubmissionsBetween("f-1",
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, subs, 2)
	// Oldest first.
	assert.Equal(t, "s-1", subs[0].ID)
	assert.Equal(t, "s-2", subs[1].ID)
}
