package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formhive/formhive/internal/models"
)

const submissionColumns = `id, form_id, fields, ip_address, user_agent, referrer, submitted_at, status`

// CreateSubmission inserts the submission and bumps the owning form's
// counter in the same transaction. The counter moves by an atomic delta so
// concurrent submissions never lose updates.
func (s *Store) CreateSubmission(sub *models.Submission) error {
	fieldsJSON, err := json.Marshal(sub.Fields)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := s.rebind(`
		INSERT INTO submissions (id, form_id, fields, ip_address, user_agent, referrer, submitted_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = tx.Exec(insert,
		sub.ID,
		sub.FormID,
		string(fieldsJSON),
		sub.Metadata.IPAddress,
		sub.Metadata.UserAgent,
		sub.Metadata.Referrer,
		sub.Metadata.SubmittedAt,
		string(sub.Status),
	)
	if err != nil {
		return err
	}

	result, err := tx.Exec(s.rebind(`UPDATE forms SET submissions = submissions + 1 WHERE id = ?`), sub.FormID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	// The owning form can vanish between the caller's lookup and this tx.
	// Failing closed here keeps orphan submissions out of the table.
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// DeleteSubmission removes one submission and decrements the owning form's
// counter by exactly one, atomically.
func (s *Store) DeleteSubmission(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var formID string
	err = tx.QueryRow(s.rebind(`SELECT form_id FROM submissions WHERE id = ?`), id).Scan(&formID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	result, err := tx.Exec(s.rebind(`DELETE FROM submissions WHERE id = ?`), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	// Under READ COMMITTED a concurrent delete of the same row can win
	// after our existence check; the delete then affects nothing and the
	// decrement must not run, or the counter drops twice for one record.
	if affected == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(s.rebind(`UPDATE forms SET submissions = submissions - 1 WHERE id = ?`), formID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSubmission loads one submission by id.
func (s *Store) GetSubmission(id string) (*models.Submission, error) {
	query := s.rebind(`SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`)
	return s.scanSubmission(s.db.QueryRow(query, id))
}

// ListSubmissions pages through a form's submissions ordered by submission
// time. sortAsc flips the default newest-first ordering.
func (s *Store) ListSubmissions(formID string, limit, offset int, sortAsc bool) ([]*models.Submission, error) {
	direction := "DESC"
	if sortAsc {
		direction = "ASC"
	}
	query := s.rebind(fmt.Sprintf(`
		SELECT %s FROM submissions
		WHERE form_id = ?
		ORDER BY submitted_at %s
		LIMIT ? OFFSET ?
	`, submissionColumns, direction))

	return s.querySubmissions(query, formID, limit, offset)
}

// ListSubmissionsBetween returns a form's submissions in [start, end],
// oldest first, for analytics scans and exports.
func (s *Store) ListSubmissionsBetween(formID string, start, end time.Time) ([]*models.Submission, error) {
	query := s.rebind(`
		SELECT ` + submissionColumns + ` FROM submissions
		WHERE form_id = ? AND submitted_at >= ? AND submitted_at <= ?
		ORDER BY submitted_at ASC
	`)
	return s.querySubmissions(query, formID, start, end)
}

// CountSubmissions returns the true number of submission records for a form.
func (s *Store) CountSubmissions(formID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(s.rebind(`SELECT COUNT(*) FROM submissions WHERE form_id = ?`), formID).Scan(&count)
	return count, err
}

// UpdateSubmissionStatus records the downstream processing outcome.
func (s *Store) UpdateSubmissionStatus(id string, status models.SubmissionStatus) error {
	result, err := s.db.Exec(s.rebind(`UPDATE submissions SET status = ? WHERE id = ?`), string(status), id)
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

func (s *Store) querySubmissions(query string, args ...interface{}) ([]*models.Submission, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		sub, err := s.scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

func (s *Store) scanSubmission(row rowScanner) (*models.Submission, error) {
	var sub models.Submission
	var fieldsJSON, status string
	var ipAddress, userAgent, referrer sql.NullString

	err := row.Scan(
		&sub.ID,
		&sub.FormID,
		&fieldsJSON,
		&ipAddress,
		&userAgent,
		&referrer,
		&sub.Metadata.SubmittedAt,
		&status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &sub.Fields); err != nil {
		return nil, err
	}
	sub.Status = models.SubmissionStatus(status)
	sub.Metadata.IPAddress = ipAddress.String
	sub.Metadata.UserAgent = userAgent.String
	sub.Metadata.Referrer = referrer.String
	return &sub, nil
}
