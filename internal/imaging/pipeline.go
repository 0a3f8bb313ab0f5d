// Package imaging converts raw photo bytes into two size-capped JPEG
// variants on a pool of background workers, keeping the interactive
// caller free of decode/resample work.
package imaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/franz/osteo-vault/internal/util"
)

// Options caps the two output variants. Dimensions are upper bounds;
// images already within a cap are never upscaled.
type Options struct {
	MaxDimHD    int
	MaxDimThumb int
}

// DefaultOptions returns the configured variant caps
func DefaultOptions() Options {
	return Options{
		MaxDimHD:    util.GetMaxDimHD(),
		MaxDimThumb: util.GetMaxDimThumb(),
	}
}

// Result holds both encoded variants plus the source dimensions
type Result struct {
	HD             []byte
	Thumb          []byte
	OriginalWidth  int
	OriginalHeight int
}

// request carries its own reply channel so overlapping requests can
// never cross-resolve each other's results.
type request struct {
	data  []byte
	opts  Options
	reply chan response
}

type response struct {
	result *Result
	err    error
}

// Pipeline owns a fixed pool of worker goroutines, started once and
// reused across calls.
type Pipeline struct {
	requests  chan request
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a pipeline with the given worker count
func New(workers int) *Pipeline {
	if workers <= 0 {
		workers = util.DefaultWorkers
	}

	p := &Pipeline{
		requests: make(chan request),
		done:     make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// worker answers every accepted request with exactly one response,
// success or failure. Reply channels are buffered so sending never
// blocks even if the requester gave up.
func (p *Pipeline) worker() {
	defer p.wg.Done()
	for {
		select {
		case req := <-p.requests:
			result, err := processImage(req.data, req.opts)
			req.reply <- response{result: result, err: err}
		case <-p.done:
			return
		}
	}
}

// Process converts raw image bytes into the two encoded variants.
// Fails with ErrProcessing for undecodable input or a closed pipeline.
func (p *Pipeline) Process(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", util.ErrProcessing)
	}
	if opts.MaxDimHD <= 0 || opts.MaxDimThumb <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimension cap", util.ErrProcessing)
	}

	req := request{data: data, opts: opts, reply: make(chan response, 1)}

	select {
	case p.requests <- req:
	case <-p.done:
		return nil, fmt.Errorf("%w: pipeline closed", util.ErrProcessing)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting requests and waits for in-flight work
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
