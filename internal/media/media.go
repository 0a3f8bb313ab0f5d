// Package media orchestrates the image pipeline and the datastore:
// storing a photo persists metadata plus both encoded variants
// atomically, and stored assets resolve back into transient handles
// for display.
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/osteo-vault/internal/imaging"
	"github.com/franz/osteo-vault/internal/report"
	"github.com/franz/osteo-vault/internal/store"
	"github.com/franz/osteo-vault/internal/util"
)

// mediaFormatVersion is stamped on every metadata row so a future
// re-processing pass can find assets encoded by older pipelines.
const mediaFormatVersion = 1

// Owner names the entities a stored asset belongs to. Zero ids mean
// unowned.
type Owner struct {
	PatientID int64
	SessionID int64
}

// Config wires a Manager's collaborators
type Config struct {
	Store    *store.Store
	Pipeline *imaging.Pipeline
	Options  imaging.Options
	Logger   *report.EventLogger
}

// Manager is the media store
type Manager struct {
	store    *store.Store
	pipeline *imaging.Pipeline
	opts     imaging.Options
	logger   *report.EventLogger
	registry *handleRegistry
}

// New creates a Manager
func New(cfg Config) *Manager {
	opts := cfg.Options
	if opts.MaxDimHD <= 0 || opts.MaxDimThumb <= 0 {
		opts = imaging.DefaultOptions()
	}

	return &Manager{
		store:    cfg.Store,
		pipeline: cfg.Pipeline,
		opts:     opts,
		logger:   cfg.Logger,
		registry: newHandleRegistry(),
	}
}

// Store processes raw image bytes and persists the resulting metadata,
// HD blob and thumbnail as one transaction. Returns the new media id.
// On pipeline failure nothing is written and the pipeline's error is
// returned; on storage failure no partial rows persist.
func (m *Manager) Store(ctx context.Context, data []byte, owner Owner, name string) (int64, error) {
	started := time.Now()

	result, err := m.pipeline.Process(ctx, data, m.opts)
	if err != nil {
		m.logger.LogError("media_store", err)
		return 0, err
	}

	meta := &store.MediaMetadata{
		PatientID:     owner.PatientID,
		SessionID:     owner.SessionID,
		Name:          name,
		MimeType:      util.SniffMimeType(data),
		Width:         result.OriginalWidth,
		Height:        result.OriginalHeight,
		SHA1:          util.ContentHash(data),
		FormatVersion: mediaFormatVersion,
	}

	if err := m.store.InsertMedia(meta, result.HD, result.Thumb); err != nil {
		m.logger.LogError("media_store", err)
		return 0, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}

	m.logger.LogMediaStore(meta.ID, owner.PatientID, name, time.Since(started).Milliseconds())
	return meta.ID, nil
}

// Resolve looks up one variant of a stored asset and returns a
// transient handle to its bytes. A missing or unlinked id returns
// (nil, nil), never an error.
func (m *Manager) Resolve(mediaID int64, variant Variant) (*Handle, error) {
	var (
		data []byte
		err  error
	)

	switch variant {
	case VariantThumb:
		data, err = m.store.GetMediaThumb(mediaID)
	case VariantHD:
		data, err = m.store.GetMediaBlob(mediaID)
	default:
		return nil, fmt.Errorf("unknown media variant %q", variant)
	}

	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	return m.registry.acquire(mediaID, variant, data), nil
}

// Release invalidates a previously resolved handle. Safe to call more
// than once or with a foreign handle.
func (m *Manager) Release(h *Handle) {
	m.registry.release(h)
}

// Live returns the number of outstanding handles
func (m *Manager) Live() int {
	return m.registry.live()
}

// Delete removes a stored asset (all three rows). Live handles are not
// tracked against it; holders keep their bytes until release.
func (m *Manager) Delete(mediaID int64) error {
	if err := m.store.DeleteMedia(mediaID); err != nil {
		m.logger.LogError("media_drop", err)
		return err
	}
	m.logger.LogMediaDrop(mediaID)
	return nil
}
