package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the webp decoder
)

const (
	minSourceSize = 200
	mainSize      = 800
	galleryWidth  = 1280
	jpegQuality   = 90

	// maxSourcePixels matches Pillow's decompression bomb limit.
	maxSourcePixels = 89_478_485
)

// decode parses an image and rejects anything under 200px on either side.
// Dimensions are checked from the header before any pixel buffer exists.
func decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width < minSourceSize || cfg.Height < minSourceSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooSmall, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() < minSourceSize || b.Dy() < minSourceSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooSmall, b.Dx(), b.Dy())
	}
	return img, nil
}

// toRGB converts any decoded image to opaque, non-premultiplied pixels
// with its origin at (0,0). Alpha is discarded, not composited.
func toRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// transform applies the per-class geometry: main images become an 800x800
// center square, gallery images wider than 1280 are scaled to that width.
func transform(img *image.NRGBA, class Class) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if class == ClassMain {
		side := min(w, h)
		square := imaging.CropCenter(img, side, side)
		return imaging.Resize(square, mainSize, mainSize, imaging.Lanczos)
	}

	if w <= galleryWidth {
		return img
	}
	ratio := float64(galleryWidth) / float64(w)
	return imaging.Resize(img, galleryWidth, max(int(float64(h)*ratio), 1), imaging.Lanczos)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("imageproc: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
