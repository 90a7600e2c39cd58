package bmp

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/icefoxen/image-bmp/codec"
)

// ToImage wraps a decode result into an image.Image. Three-component
// buffers become opaque NRGBA images, four-component buffers keep their
// alpha channel.
func ToImage(res *codec.DecodeResult) (image.Image, error) {
	if res.Components != 3 && res.Components != 4 {
		return nil, fmt.Errorf("bmp: cannot wrap %d-component pixel data", res.Components)
	}
	img := image.NewNRGBA(image.Rect(0, 0, res.Width, res.Height))
	for i := 0; i < res.Width*res.Height; i++ {
		src := res.PixelData[i*res.Components:]
		img.Pix[i*4+0] = src[0]
		img.Pix[i*4+1] = src[1]
		img.Pix[i*4+2] = src[2]
		if res.Components == 4 {
			img.Pix[i*4+3] = src[3]
		} else {
			img.Pix[i*4+3] = 0xff
		}
	}
	return img, nil
}

// FromImage flattens any image into 24-bit encode parameters (RGB triples,
// alpha discarded).
func FromImage(m image.Image) codec.EncodeParams {
	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := m.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*width + x) * 3
			data[i+0] = uint8(r >> 8)
			data[i+1] = uint8(g >> 8)
			data[i+2] = uint8(b >> 8)
		}
	}
	return codec.EncodeParams{
		PixelData:  data,
		Width:      width,
		Height:     height,
		Components: 3,
		BitDepth:   24,
	}
}

// FromPaletted turns a paletted image into indexed encode parameters at the
// given target bit depth (1, 4 or 8).
func FromPaletted(p *image.Paletted, bitDepth int) (codec.EncodeParams, error) {
	if bitDepth != 1 && bitDepth != 4 && bitDepth != 8 {
		return codec.EncodeParams{}, FormatError(fmt.Sprintf("bad indexed bit depth %d", bitDepth))
	}
	if len(p.Palette) > 1<<bitDepth {
		return codec.EncodeParams{}, FormatError(fmt.Sprintf("palette size %d exceeds %d-bit index range", len(p.Palette), bitDepth))
	}
	bounds := p.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pal := make([]codec.PaletteEntry, len(p.Palette))
	for i, c := range p.Palette {
		r, g, b, _ := c.RGBA()
		pal[i] = codec.PaletteEntry{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
	}
	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		copy(data[y*width:], p.Pix[y*p.Stride:y*p.Stride+width])
	}
	return codec.EncodeParams{
		PixelData:  data,
		Width:      width,
		Height:     height,
		Components: 1,
		BitDepth:   bitDepth,
		Palette:    pal,
	}, nil
}

// DecodeConfig returns the color model and dimensions of a BMP image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return image.Config{}, err
	}
	desc := d.Descriptor()
	cfg := image.Config{Width: desc.Width, Height: desc.Height}
	if d.pal != nil {
		pcm := make(color.Palette, len(d.pal))
		for i, e := range d.pal {
			pcm[i] = color.RGBA{e.R, e.G, e.B, 0xff}
		}
		cfg.ColorModel = pcm
	} else {
		cfg.ColorModel = color.NRGBAModel
	}
	return cfg, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	res, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return ToImage(res)
}

func init() {
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", decodeImage, DecodeConfig)
}
