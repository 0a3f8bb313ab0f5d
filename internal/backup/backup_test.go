package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/osteo-vault/internal/store"
	"github.com/franz/osteo-vault/internal/util"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "backup-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedRecords(t *testing.T, s *store.Store) ([]*store.Patient, []*store.Session) {
	t.Helper()

	patients := []*store.Patient{
		{LastName: "Fournier", FirstName: "Léa", BirthDate: "1988-04-02", Gender: "F",
			Phone: "0655555555", MedicalHistory: "migraine"},
		{LastName: "Garnier", FirstName: "Hugo", BirthDate: "1979-12-24", Gender: "M",
			TraumaHistory: "skiing fall 2019"},
	}
	for _, p := range patients {
		require.NoError(t, s.InsertPatient(p))
	}

	sessions := []*store.Session{
		{PatientID: patients[0].ID, Date: "2026-02-01", Motive: "lower back", Treatment: "mobilization"},
		{PatientID: patients[0].ID, Date: "2026-03-10", Motive: "follow-up"},
		{PatientID: patients[1].ID, Date: "2026-02-20", Motive: "shoulder", Advice: "stretching"},
	}
	for _, sess := range sessions {
		require.NoError(t, s.InsertSession(sess))
	}

	return patients, sessions
}

// importAll(exportAll()) must reproduce identical patient and session
// rows: same ids, same field values.
func TestRoundTrip(t *testing.T) {
	src := openTestStore(t)
	seedRecords(t, src)

	practitioner, err := src.GetPractitioner()
	require.NoError(t, err)
	practitioner.Name = "Dr. Valette"
	require.NoError(t, src.SavePractitioner(practitioner))

	doc, err := Export(src, false)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, doc.Version)
	assert.NotEmpty(t, doc.ExportDate)

	dst := openTestStore(t)
	rows, err := Import(dst, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, doc.Rows(), rows)

	wantPatients, err := src.AllPatients()
	require.NoError(t, err)
	gotPatients, err := dst.AllPatients()
	require.NoError(t, err)
	assert.Equal(t, wantPatients, gotPatients)

	wantSessions, err := src.AllSessions()
	require.NoError(t, err)
	gotSessions, err := dst.AllSessions()
	require.NoError(t, err)
	assert.Equal(t, wantSessions, gotSessions)

	gotPractitioner, err := dst.GetPractitioner()
	require.NoError(t, err)
	assert.Equal(t, "Dr. Valette", gotPractitioner.Name)
}

func TestRoundTripThroughFile(t *testing.T) {
	src := openTestStore(t)
	patients, _ := seedRecords(t, src)

	path := filepath.Join(t.TempDir(), BackupFilename(time.Now()))
	doc, err := Export(src, false)
	require.NoError(t, err)
	require.NoError(t, WriteFile(doc, path))

	decoded, err := ReadFile(path)
	require.NoError(t, err)

	dst := openTestStore(t)
	_, err = Import(dst, decoded, nil)
	require.NoError(t, err)

	// Foreign keys survive: sessions still reference their patients
	for _, p := range patients {
		got, err := dst.GetPatient(p.ID)
		require.NoError(t, err)
		require.NotNil(t, got, "patient %d must keep its id", p.ID)
	}
	sessions, err := dst.ListSessionsForPatient(patients[0].ID, false)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestRoundTripWithMedia(t *testing.T) {
	src := openTestStore(t)
	patients, _ := seedRecords(t, src)

	meta := &store.MediaMetadata{PatientID: patients[0].ID, Name: "profile",
		MimeType: "image/jpeg", Width: 640, Height: 480, SHA1: "feed", FormatVersion: 1}
	require.NoError(t, src.InsertMedia(meta, []byte{0xff, 0xd8, 0x01}, []byte{0xff, 0xd8, 0x02}))

	doc, err := Export(src, true)
	require.NoError(t, err)
	require.Len(t, doc.Media, 1)

	dst := openTestStore(t)
	_, err = Import(dst, doc, nil)
	require.NoError(t, err)

	hd, err := dst.GetMediaBlob(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0x01}, hd)

	thumb, err := dst.GetMediaThumb(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0x02}, thumb)
}

// A document missing the sessions array is rejected with a format
// error and the existing contents remain unchanged.
func TestImportValidationLeavesStoreUntouched(t *testing.T) {
	s := openTestStore(t)
	patients, _ := seedRecords(t, s)

	_, err := Decode(strings.NewReader(`{"version":"1.0","patients":[]}`))
	require.ErrorIs(t, err, util.ErrFormat)

	_, err = Decode(strings.NewReader(`{"version":"1.0","sessions":[]}`))
	require.ErrorIs(t, err, util.ErrFormat)

	_, err = Decode(strings.NewReader(`this is not json`))
	require.ErrorIs(t, err, util.ErrFormat)

	// Programmatic documents are validated too, before any clear
	_, err = Import(s, &Document{Patients: []*store.Patient{}}, nil)
	require.ErrorIs(t, err, util.ErrFormat)

	got, err := s.AllPatients()
	require.NoError(t, err)
	assert.Len(t, got, len(patients), "failed import must not mutate the store")
	sessions, err := s.AllSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

func TestImportEmptyCollectionsIsValid(t *testing.T) {
	s := openTestStore(t)
	seedRecords(t, s)

	doc, err := Decode(strings.NewReader(`{"version":"1.0","patients":[],"sessions":[]}`))
	require.NoError(t, err)

	rows, err := Import(s, doc, nil)
	require.NoError(t, err)
	assert.Zero(t, rows)

	// Destructive replace: previous rows are gone
	got, err := s.AllPatients()
	require.NoError(t, err)
	assert.Empty(t, got)

	// Profile was cleared; a default is resynthesized on access
	p, err := s.GetPractitioner()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.Name)
}

func TestBackupFilename(t *testing.T) {
	when := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "osteo_backup_2026-08-28.json", BackupFilename(when))
}

func TestExportDocumentShape(t *testing.T) {
	s := openTestStore(t)
	seedRecords(t, s)

	doc, err := Export(s, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "shape.json")
	require.NoError(t, WriteFile(doc, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, key := range []string{`"version"`, `"practitioner"`, `"patients"`, `"sessions"`, `"exportDate"`} {
		assert.Contains(t, string(raw), key)
	}
	// Media is omitted from the documented portable format
	assert.NotContains(t, string(raw), `"media"`)
}
