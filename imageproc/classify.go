package imageproc

import "image"

// Edge sampling parameters for background detection.
const (
	edgeSamples      = 20
	neutralMinLevel  = 200 // every channel must exceed this
	neutralMaxSpread = 30  // max(r,g,b)-min(r,g,b) must stay below this
	mainRatio        = 0.75
)

// Class is the category an image is filed under.
type Class string

const (
	ClassMain    Class = "main"
	ClassGallery Class = "gallery"
)

// Classify files an image as main (product shot on a white or light-gray
// background) or gallery (everything else). It samples 20 evenly spaced
// points on each of the four edges; more than 75% neutral samples means
// main. Images smaller than 3x3 are gallery.
func Classify(img *image.NRGBA) Class {
	if hasNeutralBackground(img) {
		return ClassMain
	}
	return ClassGallery
}

func hasNeutralBackground(img *image.NRGBA) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return false
	}

	neutral, total := 0, 0
	for i := 0; i < edgeSamples; i++ {
		x := min(w*i/(edgeSamples-1), w-1)
		y := min(h*i/(edgeSamples-1), h-1)
		for _, pt := range [4]image.Point{{x, 0}, {x, h - 1}, {0, y}, {w - 1, y}} {
			c := img.NRGBAAt(b.Min.X+pt.X, b.Min.Y+pt.Y)
			if isNeutral(c.R, c.G, c.B) {
				neutral++
			}
			total++
		}
	}
	return float64(neutral)/float64(total) > mainRatio
}

func isNeutral(r, g, b uint8) bool {
	if r <= neutralMinLevel || g <= neutralMinLevel || b <= neutralMinLevel {
		return false
	}
	return max(r, g, b)-min(r, g, b) < neutralMaxSpread
}
