// Package quantize prepares truecolor images for indexed BMP encoding:
// it reduces an image to a fixed palette with Floyd-Steinberg dithering
// and optionally rescales it first.
package quantize

import (
	"fmt"
	"image"
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"
)

// Monochrome is the two-entry palette for 1-bit encoding.
var Monochrome = []color.Color{color.Black, color.White}

// Grays returns a palette of n evenly spaced gray levels (2 <= n <= 256).
func Grays(n int) ([]color.Color, error) {
	if n < 2 || n > 256 {
		return nil, fmt.Errorf("quantize: gray level count %d out of range", n)
	}
	pal := make([]color.Color, n)
	for i := range pal {
		v := uint8(i * 255 / (n - 1))
		pal[i] = color.Gray{Y: v}
	}
	return pal, nil
}

// Paletted reduces m to the given palette using serpentine Floyd-Steinberg
// dithering and returns the resulting indexed image.
func Paletted(m image.Image, palette []color.Color) *image.Paletted {
	d := dither.NewDitherer(palette)
	d.Matrix = dither.FloydSteinberg
	d.Serpentine = true
	return d.DitherPaletted(m)
}

// Scale resizes m to the given width, keeping the aspect ratio, using
// Catmull-Rom interpolation. A width at or above the source width returns
// m unchanged.
func Scale(m image.Image, width int) image.Image {
	srcWidth := m.Bounds().Dx()
	if width <= 0 || width >= srcWidth {
		return m
	}
	scaled := image.Rect(0, 0, width, m.Bounds().Dy()*width/srcWidth)
	dst := image.NewRGBA(scaled)
	draw.CatmullRom.Scale(dst, scaled, m, m.Bounds(), draw.Over, nil)
	return dst
}
