package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Patient demographic and clinical-history records
CREATE TABLE IF NOT EXISTS patients (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  last_name TEXT NOT NULL,
  first_name TEXT NOT NULL,
  birth_date TEXT NOT NULL,
  gender TEXT NOT NULL DEFAULT 'M',
  phone TEXT,
  email TEXT,
  address TEXT,
  profession TEXT,
  medical_history TEXT,
  surgical_history TEXT,
  trauma_history TEXT,
  notes TEXT,
  photo_id INTEGER,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_patients_name ON patients(last_name, first_name);
CREATE INDEX IF NOT EXISTS idx_patients_gender ON patients(gender);

-- Consultation records, one row per session, owned by a patient
CREATE TABLE IF NOT EXISTS sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  patient_id INTEGER NOT NULL,
  date TEXT NOT NULL,
  motive TEXT,
  tests TEXT,
  treatment TEXT,
  advice TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_patient_date ON sessions(patient_id, date);

-- Practitioner profile, singleton row with a fixed key
CREATE TABLE IF NOT EXISTS practitioner (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  name TEXT NOT NULL DEFAULT '',
  photo TEXT,
  theme_color TEXT,
  password TEXT,
  dark_mode INTEGER NOT NULL DEFAULT 0,
  last_export_at TEXT
);

-- Processed image assets: one metadata row plus two binary variants
CREATE TABLE IF NOT EXISTS media_metadata (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  patient_id INTEGER,
  session_id INTEGER,
  name TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  width INTEGER NOT NULL,
  height INTEGER NOT NULL,
  sha1 TEXT,
  format_version INTEGER NOT NULL DEFAULT 1,
  processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_patient ON media_metadata(patient_id);
CREATE INDEX IF NOT EXISTS idx_media_session ON media_metadata(session_id);

CREATE TABLE IF NOT EXISTS media_blobs (
  media_id INTEGER PRIMARY KEY REFERENCES media_metadata(id) ON DELETE CASCADE,
  data BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS media_thumbs (
  media_id INTEGER PRIMARY KEY REFERENCES media_metadata(id) ON DELETE CASCADE,
  data BLOB NOT NULL
);
`

// Schema v2 - Performance indexes for session date scans and photo dedup
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
CREATE INDEX IF NOT EXISTS idx_media_sha1 ON media_metadata(sha1);
`
