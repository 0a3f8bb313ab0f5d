package store

import (
	"database/sql"
	"fmt"
)

const practitionerColumns = `
	id, name, COALESCE(photo, ''), COALESCE(theme_color, ''),
	COALESCE(password, ''), dark_mode, COALESCE(last_export_at, '')
`

// defaultPractitioner is synthesized and persisted the first time the
// profile is read and no row exists.
func defaultPractitioner() *Practitioner {
	return &Practitioner{
		ID:         practitionerKey,
		Name:       "",
		ThemeColor: "#3f51b5",
		DarkMode:   false,
	}
}

// GetPractitioner returns the singleton profile row. Absence is
// repaired: a default profile is inserted and returned.
func (s *Store) GetPractitioner() (*Practitioner, error) {
	p, err := s.getPractitionerRow()
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = defaultPractitioner()
	if err := s.InsertPractitioner(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) getPractitionerRow() (*Practitioner, error) {
	p := &Practitioner{}
	err := s.db.QueryRow(
		`SELECT `+practitionerColumns+` FROM practitioner WHERE id = ?`,
		practitionerKey,
	).Scan(&p.ID, &p.Name, &p.Photo, &p.ThemeColor, &p.Password, &p.DarkMode, &p.LastExportAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}

	return p, nil
}

// InsertPractitioner inserts the singleton row. A second insert
// violates the fixed-key constraint and fails with ErrConstraint.
func (s *Store) InsertPractitioner(p *Practitioner) error {
	p.ID = practitionerKey
	_, err := s.db.Exec(`
		INSERT INTO practitioner (id, name, photo, theme_color, password, dark_mode, last_export_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Photo, p.ThemeColor, p.Password, p.DarkMode, p.LastExportAt)

	if err != nil {
		return wrapInsertError("failed to insert practitioner", err)
	}

	s.notifier.publish(Change{Table: "practitioner", Op: OpInsert, ID: p.ID})
	return nil
}

// SavePractitioner upserts the singleton row with the given values
func (s *Store) SavePractitioner(p *Practitioner) error {
	p.ID = practitionerKey
	_, err := s.db.Exec(`
		INSERT INTO practitioner (id, name, photo, theme_color, password, dark_mode, last_export_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			photo = excluded.photo,
			theme_color = excluded.theme_color,
			password = excluded.password,
			dark_mode = excluded.dark_mode,
			last_export_at = excluded.last_export_at
	`, p.ID, p.Name, p.Photo, p.ThemeColor, p.Password, p.DarkMode, p.LastExportAt)

	if err != nil {
		return fmt.Errorf("failed to save practitioner: %w", err)
	}

	s.notifier.publish(Change{Table: "practitioner", Op: OpUpdate, ID: p.ID})
	return nil
}

// TouchLastExport records an export timestamp on the profile
func (s *Store) TouchLastExport(when string) error {
	p, err := s.GetPractitioner()
	if err != nil {
		return err
	}
	p.LastExportAt = when
	return s.SavePractitioner(p)
}
