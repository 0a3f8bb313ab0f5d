package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/gif" // register decoders
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/franz/osteo-vault/internal/util"
)

// JPEG encode qualities per variant
const (
	qualityHD    = 85
	qualityThumb = 70
)

// processImage decodes the input once and renders both variants from
// the same pixel buffer.
func processImage(data []byte, opts Options) (*Result, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", util.ErrProcessing, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero-size image", util.ErrProcessing)
	}

	hd, err := renderVariant(src, opts.MaxDimHD, qualityHD)
	if err != nil {
		return nil, err
	}

	thumb, err := renderVariant(src, opts.MaxDimThumb, qualityThumb)
	if err != nil {
		return nil, err
	}

	return &Result{
		HD:             hd,
		Thumb:          thumb,
		OriginalWidth:  width,
		OriginalHeight: height,
	}, nil
}

// scaledSize computes the target dimensions for one variant: a single
// uniform scale factor min(cap/w, cap/h), clamped to 1 so images are
// never upscaled, with nearest-integer rounding.
func scaledSize(width, height, maxDim int) (int, int) {
	if width <= maxDim && height <= maxDim {
		return width, height
	}

	factor := math.Min(float64(maxDim)/float64(width), float64(maxDim)/float64(height))
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// renderVariant resamples into an offscreen raster at the target size
// and encodes to JPEG at the variant's fixed quality.
func renderVariant(src image.Image, maxDim, quality int) ([]byte, error) {
	bounds := src.Bounds()
	w, h := scaledSize(bounds.Dx(), bounds.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Copy(dst, image.Point{}, src, bounds, draw.Src, nil)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", util.ErrProcessing, err)
	}

	return buf.Bytes(), nil
}
