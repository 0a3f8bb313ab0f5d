package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/franz/osteo-vault/internal/util"
)

// patientColumns is the select list shared by every patient query
const patientColumns = `
	id, last_name, first_name, birth_date, gender,
	COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''),
	COALESCE(profession, ''), COALESCE(medical_history, ''),
	COALESCE(surgical_history, ''), COALESCE(trauma_history, ''),
	COALESCE(notes, ''), COALESCE(photo_id, 0), COALESCE(created_at, '')
`

// InsertPatient inserts a patient record and assigns its surrogate id
func (s *Store) InsertPatient(p *Patient) error {
	result, err := s.db.Exec(`
		INSERT INTO patients (last_name, first_name, birth_date, gender,
			phone, email, address, profession,
			medical_history, surgical_history, trauma_history, notes, photo_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.LastName, p.FirstName, p.BirthDate, p.Gender,
		p.Phone, p.Email, p.Address, p.Profession,
		p.MedicalHistory, p.SurgicalHistory, p.TraumaHistory, p.Notes,
		nullableID(p.PhotoID))

	if err != nil {
		return wrapInsertError("failed to insert patient", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get patient ID: %w", err)
	}
	p.ID = id

	s.notifier.publish(Change{Table: "patients", Op: OpInsert, ID: id})
	return nil
}

// GetPatient retrieves a patient by id. Returns (nil, nil) on miss.
func (s *Store) GetPatient(id int64) (*Patient, error) {
	p := &Patient{}
	err := s.db.QueryRow(`SELECT `+patientColumns+` FROM patients WHERE id = ?`, id).Scan(
		&p.ID, &p.LastName, &p.FirstName, &p.BirthDate, &p.Gender,
		&p.Phone, &p.Email, &p.Address, &p.Profession,
		&p.MedicalHistory, &p.SurgicalHistory, &p.TraumaHistory,
		&p.Notes, &p.PhotoID, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return p, nil
}

// PatientPatch names the fields to replace on update. Nil fields
// retain their prior stored values.
type PatientPatch struct {
	LastName        *string
	FirstName       *string
	BirthDate       *string
	Gender          *string
	Phone           *string
	Email           *string
	Address         *string
	Profession      *string
	MedicalHistory  *string
	SurgicalHistory *string
	TraumaHistory   *string
	Notes           *string
	PhotoID         *int64
}

// UpdatePatient applies a partial update. Fails with ErrNotFound if
// the id does not exist.
func (s *Store) UpdatePatient(id int64, patch PatientPatch) error {
	sets, args := buildPatientSet(patch)
	if len(sets) == 0 {
		// Nothing to change; still report a missing id
		p, err := s.GetPatient(id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("patient %d: %w", id, util.ErrNotFound)
		}
		return nil
	}

	args = append(args, id)
	result, err := s.db.Exec(
		"UPDATE patients SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("patient %d: %w", id, util.ErrNotFound)
	}

	s.notifier.publish(Change{Table: "patients", Op: OpUpdate, ID: id})
	return nil
}

func buildPatientSet(patch PatientPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	set := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.BirthDate != nil {
		set("birth_date", *patch.BirthDate)
	}
	if patch.Gender != nil {
		set("gender", *patch.Gender)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.Profession != nil {
		set("profession", *patch.Profession)
	}
	if patch.MedicalHistory != nil {
		set("medical_history", *patch.MedicalHistory)
	}
	if patch.SurgicalHistory != nil {
		set("surgical_history", *patch.SurgicalHistory)
	}
	if patch.TraumaHistory != nil {
		set("trauma_history", *patch.TraumaHistory)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.PhotoID != nil {
		set("photo_id", nullableID(*patch.PhotoID))
	}

	return sets, args
}

// DeletePatient removes a patient row. Deleting an absent id is a
// no-op, not an error. Owned sessions are NOT touched; use
// DeletePatientCascade for the full workflow.
func (s *Store) DeletePatient(id int64) error {
	result, err := s.db.Exec("DELETE FROM patients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected > 0 {
		s.notifier.publish(Change{Table: "patients", Op: OpDelete, ID: id})
	}
	return nil
}

// DeletePatientCascade removes a patient together with all sessions
// and media assets that reference it, in one transaction. Partial
// failure cannot leave orphaned sessions.
func (s *Store) DeletePatientCascade(id int64) error {
	err := s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM media_blobs WHERE media_id IN
				(SELECT id FROM media_metadata WHERE patient_id = ?)`, id); err != nil {
			return fmt.Errorf("failed to delete patient media blobs: %w", err)
		}
		if _, err := tx.Exec(`
			DELETE FROM media_thumbs WHERE media_id IN
				(SELECT id FROM media_metadata WHERE patient_id = ?)`, id); err != nil {
			return fmt.Errorf("failed to delete patient media thumbs: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM media_metadata WHERE patient_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete patient media: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM sessions WHERE patient_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete patient sessions: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM patients WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.publish(Change{Table: "patients", Op: OpDelete, ID: id})
	return nil
}

// ListPatientsOptions controls filtering and ordering of patient lists
type ListPatientsOptions struct {
	Gender     string // "M", "F" or empty for all
	Locale     string // BCP 47 tag for name collation; empty uses root order
	Descending bool
}

// ListPatients returns patients ordered by last name then first name
// using locale-aware collation.
func (s *Store) ListPatients(opts ListPatientsOptions) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	var args []interface{}
	if opts.Gender != "" {
		query += " WHERE gender = ?"
		args = append(args, opts.Gender)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		err := rows.Scan(
			&p.ID, &p.LastName, &p.FirstName, &p.BirthDate, &p.Gender,
			&p.Phone, &p.Email, &p.Address, &p.Profession,
			&p.MedicalHistory, &p.SurgicalHistory, &p.TraumaHistory,
			&p.Notes, &p.PhotoID, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortPatientsByName(patients, opts.Locale, opts.Descending)
	return patients, nil
}

// sortPatientsByName orders by (last, first) with locale-correct
// comparison for accented characters. SQLite's built-in collations
// are byte-ordered, so ordering happens here.
func sortPatientsByName(patients []*Patient, locale string, descending bool) {
	tag := language.Und
	if locale != "" {
		tag = language.Make(locale)
	}
	c := collate.New(tag, collate.IgnoreCase)

	sort.SliceStable(patients, func(i, j int) bool {
		a, b := patients[i], patients[j]
		cmp := c.CompareString(a.LastName, b.LastName)
		if cmp == 0 {
			cmp = c.CompareString(a.FirstName, b.FirstName)
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

// AllPatients retrieves every patient row in id order
func (s *Store) AllPatients() ([]*Patient, error) {
	rows, err := s.db.Query(`SELECT ` + patientColumns + ` FROM patients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		err := rows.Scan(
			&p.ID, &p.LastName, &p.FirstName, &p.BirthDate, &p.Gender,
			&p.Phone, &p.Email, &p.Address, &p.Profession,
			&p.MedicalHistory, &p.SurgicalHistory, &p.TraumaHistory,
			&p.Notes, &p.PhotoID, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	return patients, rows.Err()
}

// CountPatients returns the number of patient rows
func (s *Store) CountPatients() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM patients").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

// nullableID maps the zero id onto NULL so unlinked references stay
// NULL in storage rather than pointing at id 0.
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
