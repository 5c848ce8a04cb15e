// Package imagex holds the image helpers of the upload pipeline: format
// sniffing and bounded, aspect-preserving downscaling.
package imagex

import (
	"image"
	"math"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

// Size is a pixel bound.
type Size struct {
	Width  int
	Height int
}

func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Format is the source encoding of an image as far as the pipeline cares.
type Format string

const (
	FormatJPEG  Format = "jpeg"
	FormatPNG   Format = "png"
	FormatOther Format = "other"
)

// DetectFormat sniffs data. Only the first few hundred bytes are needed.
func DetectFormat(data []byte) (Format, string) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/png"):
		return FormatPNG, mt.String()
	case mt.Is("image/jpeg"):
		return FormatJPEG, mt.String()
	default:
		return FormatOther, mt.String()
	}
}

// decodable lists the source types the asset store registers decoders for.
var decodable = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// IsImage reports whether data sniffs as an image type we can decode.
func IsImage(data []byte) bool {
	mt := mimetype.Detect(data)
	for _, t := range decodable {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// Fit returns img scaled down to fit inside bound, keeping the aspect ratio.
// Images already inside the bound, and invalid bounds, return img unchanged.
func Fit(img image.Image, bound Size) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if !bound.Valid() || (w <= bound.Width && h <= bound.Height) || w == 0 || h == 0 {
		return img
	}

	scale := min(float64(bound.Width)/float64(w), float64(bound.Height)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
