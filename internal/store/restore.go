package store

import (
	"database/sql"
	"fmt"
)

// ReplaceAll destructively replaces the store's contents in one
// transaction: every table is cleared, then the incoming rows are
// bulk-inserted with their original surrogate ids so foreign keys
// (patientId, photoId) inside them remain valid. If any step fails,
// the previous contents are untouched.
//
// practitioner may be nil, in which case the profile table is left
// cleared and a default is resynthesized on next access. media may be
// nil for documents without embedded photos.
func (s *Store) ReplaceAll(
	patients []*Patient,
	sessions []*Session,
	practitioner *Practitioner,
	media []*MediaAsset,
	progress func(done int),
) error {
	done := 0
	step := func() {
		done++
		if progress != nil {
			progress(done)
		}
	}

	err := s.Transaction(func(tx *sql.Tx) error {
		if err := clearAllTables(tx); err != nil {
			return err
		}

		for _, p := range patients {
			_, err := tx.Exec(`
				INSERT INTO patients (id, last_name, first_name, birth_date, gender,
					phone, email, address, profession,
					medical_history, surgical_history, trauma_history, notes,
					photo_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, p.ID, p.LastName, p.FirstName, p.BirthDate, p.Gender,
				p.Phone, p.Email, p.Address, p.Profession,
				p.MedicalHistory, p.SurgicalHistory, p.TraumaHistory, p.Notes,
				nullableID(p.PhotoID), p.CreatedAt)
			if err != nil {
				return wrapInsertError(fmt.Sprintf("failed to restore patient %d", p.ID), err)
			}
			step()
		}

		for _, sess := range sessions {
			_, err := tx.Exec(`
				INSERT INTO sessions (id, patient_id, date, motive, tests, treatment, advice, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, sess.ID, sess.PatientID, sess.Date,
				sess.Motive, sess.Tests, sess.Treatment, sess.Advice, sess.CreatedAt)
			if err != nil {
				return wrapInsertError(fmt.Sprintf("failed to restore session %d", sess.ID), err)
			}
			step()
		}

		if practitioner != nil {
			_, err := tx.Exec(`
				INSERT INTO practitioner (id, name, photo, theme_color, password, dark_mode, last_export_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, practitionerKey, practitioner.Name, practitioner.Photo,
				practitioner.ThemeColor, practitioner.Password,
				practitioner.DarkMode, practitioner.LastExportAt)
			if err != nil {
				return wrapInsertError("failed to restore practitioner", err)
			}
			step()
		}

		for _, asset := range media {
			m := asset.Meta
			_, err := tx.Exec(`
				INSERT INTO media_metadata
					(id, patient_id, session_id, name, mime_type, width, height, sha1, format_version, processed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, m.ID, nullableID(m.PatientID), nullableID(m.SessionID),
				m.Name, m.MimeType, m.Width, m.Height, m.SHA1, m.FormatVersion, m.ProcessedAt)
			if err != nil {
				return wrapInsertError(fmt.Sprintf("failed to restore media %d", m.ID), err)
			}
			if _, err := tx.Exec(
				"INSERT INTO media_blobs (media_id, data) VALUES (?, ?)", m.ID, asset.HD); err != nil {
				return wrapInsertError(fmt.Sprintf("failed to restore media blob %d", m.ID), err)
			}
			if _, err := tx.Exec(
				"INSERT INTO media_thumbs (media_id, data) VALUES (?, ?)", m.ID, asset.Thumb); err != nil {
				return wrapInsertError(fmt.Sprintf("failed to restore media thumbnail %d", m.ID), err)
			}
			step()
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.publish(Change{Table: "*", Op: OpReset})
	return nil
}
