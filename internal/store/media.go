package store

import (
	"database/sql"
	"fmt"
)

const mediaColumns = `
	id, COALESCE(patient_id, 0), COALESCE(session_id, 0), name, mime_type,
	width, height, COALESCE(sha1, ''), format_version, COALESCE(processed_at, '')
`

// InsertMedia writes a metadata row plus its HD and thumbnail blobs in
// one transaction. Partial creation (metadata without blobs or vice
// versa) cannot occur: on any failure no rows persist.
func (s *Store) InsertMedia(meta *MediaMetadata, hd, thumb []byte) error {
	err := s.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO media_metadata
				(patient_id, session_id, name, mime_type, width, height, sha1, format_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, nullableID(meta.PatientID), nullableID(meta.SessionID),
			meta.Name, meta.MimeType, meta.Width, meta.Height, meta.SHA1, meta.FormatVersion)
		if err != nil {
			return wrapInsertError("failed to insert media metadata", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get media ID: %w", err)
		}
		meta.ID = id

		if _, err := tx.Exec(
			"INSERT INTO media_blobs (media_id, data) VALUES (?, ?)", id, hd); err != nil {
			return wrapInsertError("failed to insert media blob", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO media_thumbs (media_id, data) VALUES (?, ?)", id, thumb); err != nil {
			return wrapInsertError("failed to insert media thumbnail", err)
		}

		return nil
	})
	if err != nil {
		meta.ID = 0
		return err
	}

	s.notifier.publish(Change{Table: "media_metadata", Op: OpInsert, ID: meta.ID})
	return nil
}

// GetMediaMetadata retrieves a media metadata row. Returns (nil, nil)
// on miss.
func (s *Store) GetMediaMetadata(id int64) (*MediaMetadata, error) {
	m := &MediaMetadata{}
	err := s.db.QueryRow(`SELECT `+mediaColumns+` FROM media_metadata WHERE id = ?`, id).Scan(
		&m.ID, &m.PatientID, &m.SessionID, &m.Name, &m.MimeType,
		&m.Width, &m.Height, &m.SHA1, &m.FormatVersion, &m.ProcessedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media metadata: %w", err)
	}

	return m, nil
}

// GetMediaBlob returns the HD variant bytes, or nil on miss
func (s *Store) GetMediaBlob(id int64) ([]byte, error) {
	return s.getBlobRow("media_blobs", id)
}

// GetMediaThumb returns the thumbnail variant bytes, or nil on miss
func (s *Store) GetMediaThumb(id int64) ([]byte, error) {
	return s.getBlobRow("media_thumbs", id)
}

func (s *Store) getBlobRow(table string, id int64) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM "+table+" WHERE media_id = ?", id).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob from %s: %w", table, err)
	}

	return data, nil
}

// DeleteMedia removes a media asset's three rows in one transaction.
// Deleting an absent id is a no-op.
func (s *Store) DeleteMedia(id int64) error {
	var deleted bool
	err := s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM media_blobs WHERE media_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete media blob: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM media_thumbs WHERE media_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete media thumbnail: %w", err)
		}
		result, err := tx.Exec("DELETE FROM media_metadata WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete media metadata: %w", err)
		}
		affected, _ := result.RowsAffected()
		deleted = affected > 0
		return nil
	})
	if err != nil {
		return err
	}

	if deleted {
		s.notifier.publish(Change{Table: "media_metadata", Op: OpDelete, ID: id})
	}
	return nil
}

// ListMediaForPatient returns the metadata rows owned by a patient
func (s *Store) ListMediaForPatient(patientID int64) ([]*MediaMetadata, error) {
	rows, err := s.db.Query(`
		SELECT `+mediaColumns+` FROM media_metadata
		WHERE patient_id = ? ORDER BY id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	return scanMediaRows(rows)
}

// AllMediaAssets retrieves every media asset with both blob variants,
// in id order. Used by media-inclusive exports.
func (s *Store) AllMediaAssets() ([]*MediaAsset, error) {
	rows, err := s.db.Query(`SELECT ` + mediaColumns + ` FROM media_metadata ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	metas, err := scanMediaRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	assets := make([]*MediaAsset, 0, len(metas))
	for _, m := range metas {
		hd, err := s.GetMediaBlob(m.ID)
		if err != nil {
			return nil, err
		}
		thumb, err := s.GetMediaThumb(m.ID)
		if err != nil {
			return nil, err
		}
		assets = append(assets, &MediaAsset{Meta: *m, HD: hd, Thumb: thumb})
	}

	return assets, nil
}

func scanMediaRows(rows *sql.Rows) ([]*MediaMetadata, error) {
	var metas []*MediaMetadata
	for rows.Next() {
		m := &MediaMetadata{}
		err := rows.Scan(
			&m.ID, &m.PatientID, &m.SessionID, &m.Name, &m.MimeType,
			&m.Width, &m.Height, &m.SHA1, &m.FormatVersion, &m.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media metadata: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
