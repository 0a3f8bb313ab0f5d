package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/franz/osteo-vault/internal/util"
)

// makePNG encodes a gradient test image of the given size
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	return cfg.Width, cfg.Height
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p := New(2)
	t.Cleanup(p.Close)
	return p
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		name          string
		w, h, maxDim  int
		wantW, wantH  int
	}{
		{"within cap untouched", 100, 80, 200, 100, 80},
		{"exact cap untouched", 200, 200, 200, 200, 200},
		{"landscape downscale", 2000, 1000, 1280, 1280, 640},
		{"portrait downscale", 1000, 2000, 1280, 640, 1280},
		{"rounding", 1001, 999, 500, 500, 499},
		{"tiny never upscaled", 1, 1, 200, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := scaledSize(tt.w, tt.h, tt.maxDim)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("scaledSize(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.w, tt.h, tt.maxDim, gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessDownscalesBothVariants(t *testing.T) {
	p := newTestPipeline(t)

	input := makePNG(t, 2000, 1000)
	result, err := p.Process(context.Background(),
		input, Options{MaxDimHD: 1280, MaxDimThumb: 200})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if result.OriginalWidth != 2000 || result.OriginalHeight != 1000 {
		t.Errorf("expected original 2000x1000, got %dx%d",
			result.OriginalWidth, result.OriginalHeight)
	}

	if w, h := decodeSize(t, result.HD); w != 1280 || h != 640 {
		t.Errorf("expected HD 1280x640, got %dx%d", w, h)
	}
	if w, h := decodeSize(t, result.Thumb); w != 200 || h != 100 {
		t.Errorf("expected thumb 200x100, got %dx%d", w, h)
	}
}

func TestProcessNeverUpscales(t *testing.T) {
	p := newTestPipeline(t)

	// Smaller than both caps in both dimensions
	input := makePNG(t, 100, 80)
	result, err := p.Process(context.Background(),
		input, Options{MaxDimHD: 1280, MaxDimThumb: 200})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if w, h := decodeSize(t, result.HD); w != 100 || h != 80 {
		t.Errorf("expected HD to keep 100x80, got %dx%d", w, h)
	}
	if w, h := decodeSize(t, result.Thumb); w != 100 || h != 80 {
		t.Errorf("expected thumb to keep 100x80, got %dx%d", w, h)
	}
}

func TestProcessInvalidInput(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Process(context.Background(),
		[]byte("definitely not an image"), Options{MaxDimHD: 1280, MaxDimThumb: 200})
	if !errors.Is(err, util.ErrProcessing) {
		t.Errorf("expected ErrProcessing, got %v", err)
	}

	_, err = p.Process(context.Background(), nil, Options{MaxDimHD: 1280, MaxDimThumb: 200})
	if !errors.Is(err, util.ErrProcessing) {
		t.Errorf("expected ErrProcessing for empty input, got %v", err)
	}
}

func TestProcessClosedPipeline(t *testing.T) {
	p := New(1)
	p.Close()

	_, err := p.Process(context.Background(),
		makePNG(t, 10, 10), Options{MaxDimHD: 100, MaxDimThumb: 50})
	if !errors.Is(err, util.ErrProcessing) {
		t.Errorf("expected ErrProcessing after close, got %v", err)
	}
}

// Concurrent callers must each get their own image's result back.
func TestProcessConcurrentRequestsDoNotCross(t *testing.T) {
	p := newTestPipeline(t)
	opts := Options{MaxDimHD: 1280, MaxDimThumb: 200}

	sizes := []struct{ w, h int }{
		{300, 100}, {100, 300}, {50, 50}, {640, 480}, {480, 640}, {2000, 500},
	}

	inputs := make([][]byte, len(sizes))
	for i, size := range sizes {
		inputs[i] = makePNG(t, size.w, size.h)
	}

	var wg sync.WaitGroup
	for i, size := range sizes {
		wg.Add(1)
		go func(input []byte, w, h int) {
			defer wg.Done()

			result, err := p.Process(context.Background(), input, opts)
			if err != nil {
				t.Errorf("process %dx%d failed: %v", w, h, err)
				return
			}
			if result.OriginalWidth != w || result.OriginalHeight != h {
				t.Errorf("result crossed: sent %dx%d, got %dx%d",
					w, h, result.OriginalWidth, result.OriginalHeight)
			}
		}(inputs[i], size.w, size.h)
	}
	wg.Wait()
}
