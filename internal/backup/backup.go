// Package backup serializes the full datastore to one portable JSON
// document and restores it destructively. The documented v1.0 shape
// carries structured records only; media can be embedded on request.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/franz/osteo-vault/internal/store"
	"github.com/franz/osteo-vault/internal/util"
)

// FormatVersion is the backup document schema version
const FormatVersion = "1.0"

// Document is the portable backup format. Practitioner holds zero or
// one rows. Media is only present for media-inclusive exports; blob
// bytes round-trip as base64 strings.
type Document struct {
	Version      string                `json:"version"`
	Practitioner []*store.Practitioner `json:"practitioner"`
	Patients     []*store.Patient      `json:"patients"`
	Sessions     []*store.Session      `json:"sessions"`
	Media        []*store.MediaAsset   `json:"media,omitempty"`
	ExportDate   string                `json:"exportDate"`
}

// Rows returns the number of restorable rows in the document
func (d *Document) Rows() int {
	n := len(d.Patients) + len(d.Sessions) + len(d.Media)
	if len(d.Practitioner) > 0 {
		n++
	}
	return n
}

// BackupFilename returns the conventional export filename for a date,
// osteo_backup_<YYYY-MM-DD>.json.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("osteo_backup_%s.json", t.Format("2006-01-02"))
}

// Export reads the whole datastore into one document. withMedia embeds
// every media asset with both binary variants.
func Export(s *store.Store, withMedia bool) (*Document, error) {
	patients, err := s.AllPatients()
	if err != nil {
		return nil, err
	}

	sessions, err := s.AllSessions()
	if err != nil {
		return nil, err
	}

	practitioner, err := s.GetPractitioner()
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Version:      FormatVersion,
		Practitioner: []*store.Practitioner{practitioner},
		Patients:     patients,
		Sessions:     sessions,
		ExportDate:   time.Now().Format(time.RFC3339),
	}
	if doc.Patients == nil {
		doc.Patients = []*store.Patient{}
	}
	if doc.Sessions == nil {
		doc.Sessions = []*store.Session{}
	}

	if withMedia {
		media, err := s.AllMediaAssets()
		if err != nil {
			return nil, err
		}
		doc.Media = media
	}

	return doc, nil
}

// Validate checks that the document carries the two mandatory
// collections. It must pass before any destructive action.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", util.ErrFormat)
	}
	if doc.Patients == nil {
		return fmt.Errorf("%w: missing patients array", util.ErrFormat)
	}
	if doc.Sessions == nil {
		return fmt.Errorf("%w: missing sessions array", util.ErrFormat)
	}
	return nil
}

// Decode parses a backup document from r, distinguishing absent
// collections from empty ones. Malformed input fails with ErrFormat.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	// Presence probe: a missing key stays nil, an empty array does not
	var probe struct {
		Patients json.RawMessage `json:"patients"`
		Sessions json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
	}
	if probe.Patients == nil {
		return nil, fmt.Errorf("%w: missing patients array", util.ErrFormat)
	}
	if probe.Sessions == nil {
		return nil, fmt.Errorf("%w: missing sessions array", util.ErrFormat)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
	}
	if doc.Patients == nil {
		doc.Patients = []*store.Patient{}
	}
	if doc.Sessions == nil {
		doc.Sessions = []*store.Session{}
	}

	return doc, nil
}

// Import performs the destructive replace: validation first, then all
// tables are cleared and the document's rows bulk-inserted preserving
// their original ids, inside one store transaction. On any failure the
// existing contents remain exactly as they were. Returns the number of
// restored rows.
func Import(s *store.Store, doc *Document, progress func(done int)) (int, error) {
	if err := Validate(doc); err != nil {
		return 0, err
	}

	var practitioner *store.Practitioner
	if len(doc.Practitioner) > 0 {
		practitioner = doc.Practitioner[0]
	}

	err := s.ReplaceAll(doc.Patients, doc.Sessions, practitioner, doc.Media, progress)
	if err != nil {
		return 0, err
	}

	return doc.Rows(), nil
}

// WriteFile encodes a document to path as indented JSON
func WriteFile(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	return f.Sync()
}

// ReadFile decodes a document from path
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
