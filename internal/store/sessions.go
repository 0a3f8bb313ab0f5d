package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/franz/osteo-vault/internal/util"
)

const sessionColumns = `
	id, patient_id, date,
	COALESCE(motive, ''), COALESCE(tests, ''),
	COALESCE(treatment, ''), COALESCE(advice, ''), COALESCE(created_at, '')
`

// InsertSession inserts a consultation record and assigns its id.
// The referenced patient must exist; that check is the caller's.
func (s *Store) InsertSession(sess *Session) error {
	result, err := s.db.Exec(`
		INSERT INTO sessions (patient_id, date, motive, tests, treatment, advice)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.PatientID, sess.Date, sess.Motive, sess.Tests, sess.Treatment, sess.Advice)

	if err != nil {
		return wrapInsertError("failed to insert session", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session ID: %w", err)
	}
	sess.ID = id

	s.notifier.publish(Change{Table: "sessions", Op: OpInsert, ID: id})
	return nil
}

// GetSession retrieves a session by id. Returns (nil, nil) on miss.
func (s *Store) GetSession(id int64) (*Session, error) {
	sess := &Session{}
	err := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id).Scan(
		&sess.ID, &sess.PatientID, &sess.Date,
		&sess.Motive, &sess.Tests, &sess.Treatment, &sess.Advice, &sess.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return sess, nil
}

// SessionPatch names the fields to replace on update
type SessionPatch struct {
	Date      *string
	Motive    *string
	Tests     *string
	Treatment *string
	Advice    *string
}

// UpdateSession applies a partial update. Fails with ErrNotFound if
// the id does not exist.
func (s *Store) UpdateSession(id int64, patch SessionPatch) error {
	var sets []string
	var args []interface{}

	set := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if patch.Date != nil {
		set("date", *patch.Date)
	}
	if patch.Motive != nil {
		set("motive", *patch.Motive)
	}
	if patch.Tests != nil {
		set("tests", *patch.Tests)
	}
	if patch.Treatment != nil {
		set("treatment", *patch.Treatment)
	}
	if patch.Advice != nil {
		set("advice", *patch.Advice)
	}

	if len(sets) == 0 {
		sess, err := s.GetSession(id)
		if err != nil {
			return err
		}
		if sess == nil {
			return fmt.Errorf("session %d: %w", id, util.ErrNotFound)
		}
		return nil
	}

	args = append(args, id)
	result, err := s.db.Exec(
		"UPDATE sessions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %d: %w", id, util.ErrNotFound)
	}

	s.notifier.publish(Change{Table: "sessions", Op: OpUpdate, ID: id})
	return nil
}

// DeleteSession removes a session row. Deleting an absent id is a no-op.
func (s *Store) DeleteSession(id int64) error {
	result, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected > 0 {
		s.notifier.publish(Change{Table: "sessions", Op: OpDelete, ID: id})
	}
	return nil
}

// ListSessionsForPatient returns a patient's sessions in chronological
// order (ISO dates sort lexicographically). Descending reverses it.
func (s *Store) ListSessionsForPatient(patientID int64, descending bool) ([]*Session, error) {
	order := "ASC"
	if descending {
		order = "DESC"
	}

	rows, err := s.db.Query(`
		SELECT `+sessionColumns+` FROM sessions
		WHERE patient_id = ?
		ORDER BY date `+order+`, id `+order, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListSessionsInRange returns a patient's sessions with from <= date
// <= to, chronologically. Empty bounds leave that side open.
func (s *Store) ListSessionsInRange(patientID int64, from, to string) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE patient_id = ?`
	args := []interface{}{patientID}

	if from != "" {
		query += " AND date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY date, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// AllSessions retrieves every session row in id order
func (s *Store) AllSessions() ([]*Session, error) {
	rows, err := s.db.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		err := rows.Scan(
			&sess.ID, &sess.PatientID, &sess.Date,
			&sess.Motive, &sess.Tests, &sess.Treatment, &sess.Advice, &sess.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// CountSessionsForPatient returns the number of sessions owned by a patient
func (s *Store) CountSessionsForPatient(patientID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sessions WHERE patient_id = ?", patientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
