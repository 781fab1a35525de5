// Package render draws detection boxes and labels onto images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"inspector/pkg/types"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// palette cycles by class id so one class keeps one color across images.
var palette = []color.RGBA{
	{0xff, 0x38, 0x38, 0xff}, {0xff, 0x9d, 0x97, 0xff}, {0xff, 0x70, 0x1f, 0xff}, {0xff, 0xb2, 0x1d, 0xff},
	{0xcf, 0xd2, 0x31, 0xff}, {0x48, 0xf9, 0x0a, 0xff}, {0x92, 0xcc, 0x17, 0xff}, {0x3d, 0xdb, 0x86, 0xff},
	{0x1a, 0x93, 0x34, 0xff}, {0x00, 0xd4, 0xbb, 0xff}, {0x2c, 0x99, 0xa8, 0xff}, {0x00, 0xc2, 0xff, 0xff},
	{0x34, 0x45, 0x93, 0xff}, {0x64, 0x73, 0xff, 0xff}, {0x00, 0x18, 0xec, 0xff}, {0x84, 0x38, 0xff, 0xff},
	{0x52, 0x00, 0x85, 0xff}, {0xcb, 0x38, 0xff, 0xff}, {0xff, 0x95, 0xc8, 0xff}, {0xff, 0x37, 0xc7, 0xff},
}

// ColorFor returns the box color used for a class id.
func ColorFor(classID int) color.RGBA {
	n := len(palette)
	return palette[((classID%n)+n)%n]
}

// Label is the text drawn above a box.
func Label(d types.Detection) string {
	return fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
}

// Annotate returns a copy of img with every detection drawn on it.
func Annotate(img image.Image, dets []types.Detection) image.Image {
	dc := gg.NewContextForImage(img)
	b := img.Bounds()
	lineWidth := math.Max(2, math.Round(float64(min(b.Dx(), b.Dy()))/300))
	face := truetype.NewFace(font, &truetype.Options{Size: math.Max(11, lineWidth*5)})
	dc.SetFontFace(face)

	for _, d := range dets {
		x1, y1, x2, y2 := d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]
		c := ColorFor(d.ClassID)

		dc.SetColor(c)
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(x1, y1, x2-x1, y2-y1)
		dc.Stroke()

		text := Label(d)
		tw, th := dc.MeasureString(text)
		ty := y1 - th - 4
		if ty < 0 {
			ty = y1
		}
		dc.DrawRectangle(x1, ty, tw+6, th+4)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(text, x1+3, ty+2, 0, 1)
	}
	return dc.Image()
}
