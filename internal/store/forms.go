package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/formhive/formhive/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

const formColumns = `id, title, description, fields, settings, status, submissions, created_at, updated_at, published_at`

// CreateForm inserts a new form record.
func (s *Store) CreateForm(form *models.Form) error {
	fieldsJSON, settingsJSON, err := encodeDefinition(form)
	if err != nil {
		return err
	}

	query := s.rebind(`
		INSERT INTO forms (id, title, description, fields, settings, status, submissions, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.Exec(query,
		form.ID,
		form.Title,
		form.Description,
		fieldsJSON,
		settingsJSON,
		string(form.Status),
		form.Submissions,
		form.CreatedAt,
		form.UpdatedAt,
		nullableTime(form.PublishedAt),
	)
	return err
}

// UpdateForm rewrites a form's definition and lifecycle columns. The
// submissions counter is deliberately not written here: it only ever moves
// through the atomic deltas in the submission paths.
func (s *Store) UpdateForm(form *models.Form) error {
	fieldsJSON, settingsJSON, err := encodeDefinition(form)
	if err != nil {
		return err
	}

	query := s.rebind(`
		UPDATE forms
		SET title = ?, description = ?, fields = ?, settings = ?, status = ?, updated_at = ?, published_at = ?
		WHERE id = ?
	`)
	result, err := s.db.Exec(query,
		form.Title,
		form.Description,
		fieldsJSON,
		settingsJSON,
		string(form.Status),
		form.UpdatedAt,
		nullableTime(form.PublishedAt),
		form.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForm loads one form by id.
func (s *Store) GetForm(id string) (*models.Form, error) {
	query := s.rebind(`SELECT ` + formColumns + ` FROM forms WHERE id = ?`)
	return s.scanForm(s.db.QueryRow(query, id))
}

// ListForms returns all forms, most recently updated first.
func (s *Store) ListForms() ([]*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms ORDER BY updated_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []*models.Form
	for rows.Next() {
		form, err := s.scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

// DeleteForm removes a form and all of its submissions in one transaction.
func (s *Store) DeleteForm(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind(`DELETE FROM submissions WHERE form_id = ?`), id); err != nil {
		return err
	}
	result, err := tx.Exec(s.rebind(`DELETE FROM forms WHERE id = ?`), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanForm(row rowScanner) (*models.Form, error) {
	var form models.Form
	var fieldsJSON, settingsJSON, status string
	var description sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(
		&form.ID,
		&form.Title,
		&description,
		&fieldsJSON,
		&settingsJSON,
		&status,
		&form.Submissions,
		&form.CreatedAt,
		&form.UpdatedAt,
		&publishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &form.Fields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(settingsJSON), &form.Settings); err != nil {
		return nil, err
	}
	form.Status = models.FormStatus(status)
	if description.Valid {
		form.Description = description.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		form.PublishedAt = &t
	}
	return &form, nil
}

func encodeDefinition(form *models.Form) (string, string, error) {
	fields := form.Fields
	if fields == nil {
		fields = []models.FormField{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return "", "", err
	}
	settingsJSON, err := json.Marshal(form.Settings)
	if err != nil {
		return "", "", err
	}
	return string(fieldsJSON), string(settingsJSON), nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
