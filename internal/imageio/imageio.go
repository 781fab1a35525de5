// Package imageio decodes uploaded images into a canonical RGB form and writes
// annotated results.
package imageio

import (
	"fmt"
	"image"
	"path/filepath"

	// Decoders for every accepted upload type.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// JPEGQuality is used for annotated result images.
const JPEGQuality = 90

// Open decodes the image at path, applies its EXIF orientation and converts it to RGB.
func Open(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode %s: empty image", filepath.Base(path))
	}
	return ToRGB(img), nil
}

// ToRGB returns an opaque copy of img. Alpha is discarded, not composited.
func ToRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// SaveJPEG encodes img to path.
func SaveJPEG(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}
