package media

import (
	"sync"

	"github.com/google/uuid"
)

// Variant selects one of the two stored renditions of an asset
type Variant string

const (
	VariantHD    Variant = "hd"
	VariantThumb Variant = "thumb"
)

// Handle is a transient reference to decoded binary content, held for
// the duration of one display. Acquire with Manager.Resolve, free with
// Manager.Release. Handles are not reference-counted: resolving the
// same media id twice yields two independent handles.
type Handle struct {
	token   string
	mediaID int64
	variant Variant
	data    []byte
}

// Token returns the opaque identifier for this handle
func (h *Handle) Token() string {
	return h.token
}

// MediaID returns the media row this handle was resolved from
func (h *Handle) MediaID() int64 {
	return h.mediaID
}

// Variant returns which rendition the handle holds
func (h *Handle) Variant() Variant {
	return h.variant
}

// Bytes returns the encoded image content. Nil after release.
func (h *Handle) Bytes() []byte {
	if h == nil {
		return nil
	}
	return h.data
}

// handleRegistry tracks live handles by token
type handleRegistry struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

func newHandleRegistry() *handleRegistry {
	return &handleRegistry{handles: make(map[string]*Handle)}
}

func (r *handleRegistry) acquire(mediaID int64, variant Variant, data []byte) *Handle {
	h := &Handle{
		token:   uuid.NewString(),
		mediaID: mediaID,
		variant: variant,
		data:    data,
	}

	r.mu.Lock()
	r.handles[h.token] = h
	r.mu.Unlock()

	return h
}

// release frees a handle's backing memory. Releasing an already
// released or foreign handle is a no-op.
func (r *handleRegistry) release(h *Handle) {
	if h == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[h.token]; !ok {
		return
	}
	delete(r.handles, h.token)
	h.data = nil
}

func (r *handleRegistry) live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
