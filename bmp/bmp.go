// Package bmp implements a decoder and encoder for Windows Bitmap (BMP)
// images.
//
// The decoder handles the 12, 40, 108 and 124-byte information header
// generations, bit depths 1/4/8/16/24/32, RLE4/RLE8 compression and
// bitfields channel masks. Decoded pixels are packed 8-bit RGB channel
// bytes, top row first, with an alpha channel only when the header declares
// an alpha mask. The encoder always emits the uncompressed representation
// of its target bit depth under a 40-byte information header; this is a
// deliberate simplification, not a format limitation.
//
// Related links:
//   - https://msdn.microsoft.com/en-us/library/windows/desktop/dd183375%28v=vs.85%29.aspx
//   - https://en.wikipedia.org/wiki/BMP_file_format
package bmp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icefoxen/image-bmp/codec"
)

// Decoder reads one BMP image from a byte stream. Constructing the decoder
// consumes and validates the headers and the color table, so descriptor
// metadata is available without decoding any pixel data.
type Decoder struct {
	r        io.Reader
	desc     *Descriptor
	pal      []codec.PaletteEntry
	consumed bool
}

// NewDecoder reads the headers and the palette from r. It fails before any
// allocation proportional to the declared dimensions if the header is
// malformed, unsupported, or declares an image over the allocation limit.
func NewDecoder(r io.Reader) (*Decoder, error) {
	desc, err := readDescriptor(r)
	if err != nil {
		return nil, err
	}
	pal, err := readPalette(r, desc)
	if err != nil {
		return nil, err
	}
	d := &Decoder{r: r, desc: desc, pal: pal}
	if err := d.skipToData(); err != nil {
		return nil, err
	}
	return d, nil
}

// Descriptor returns the normalized header metadata.
func (d *Decoder) Descriptor() Descriptor { return *d.desc }

// Palette returns a copy of the color table, or nil for bit depths above 8.
func (d *Decoder) Palette() []codec.PaletteEntry {
	if d.pal == nil {
		return nil
	}
	pal := make([]codec.PaletteEntry, len(d.pal))
	copy(pal, d.pal)
	return pal
}

// skipToData skips the gap, if any, between the end of the headers and the
// pixel data offset declared by the file header.
func (d *Decoder) skipToData() error {
	end := d.desc.headerEnd()
	offset := int64(d.desc.DataOffset)
	if offset < end {
		return FormatError(fmt.Sprintf("pixel data offset %d inside the headers", offset))
	}
	if offset == end {
		return nil
	}
	if _, err := io.CopyN(io.Discard, d.r, offset-end); err != nil {
		if err == io.EOF {
			return FormatError("unexpected end of stream")
		}
		return err
	}
	return nil
}

// ReadImageData decodes the pixel data into a fully-resolved row-major
// buffer, top row first. It may be called once per decoder; the buffer is
// returned whole or not at all.
func (d *Decoder) ReadImageData() (*codec.DecodeResult, error) {
	if d.consumed {
		return nil, FormatError("image data already consumed")
	}
	d.consumed = true

	desc := d.desc
	components := desc.Components()

	var pixels []byte
	switch desc.Compression {
	case CompressionRLE4, CompressionRLE8:
		indices, err := decodeRLE(d.r, desc)
		if err != nil {
			return nil, err
		}
		pixels, err = resolveIndices(indices, desc, d.pal)
		if err != nil {
			return nil, err
		}
	default:
		decodeRow, err := newRowDecoder(desc, d.pal)
		if err != nil {
			return nil, err
		}
		pixels, err = assemble(d.r, desc, components, decodeRow)
		if err != nil {
			return nil, err
		}
	}

	return &codec.DecodeResult{
		PixelData:  pixels,
		Width:      desc.Width,
		Height:     desc.Height,
		Components: components,
		BitDepth:   8,
	}, nil
}

// resolveIndices turns the RLE decompressor's per-pixel indices (stored
// bottom-up) into RGB bytes in top-down row order.
func resolveIndices(indices []byte, d *Descriptor, pal []codec.PaletteEntry) ([]byte, error) {
	out := make([]byte, d.Width*d.Height*3)
	resolve := newIndexResolver(d.Width, pal)
	for src := 0; src < d.Height; src++ {
		row := destRow(src, d.Height, false) // RLE images are never top-down
		if err := resolve(indices[src*d.Width:(src+1)*d.Width], out[row*d.Width*3:(row+1)*d.Width*3]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Decode reads a BMP image from r and returns the resolved pixel buffer.
func Decode(r io.Reader) (*codec.DecodeResult, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return d.ReadImageData()
}

// DecodeDescriptor reads only the headers from r and returns the normalized
// descriptor, without decoding any pixel data.
func DecodeDescriptor(r io.Reader) (Descriptor, error) {
	desc, err := readDescriptor(r)
	if err != nil {
		return Descriptor{}, err
	}
	return *desc, nil
}

// BMPCodec implements the codec.Codec interface for Windows Bitmap streams
type BMPCodec struct{}

// NewBMPCodec creates a new BMP codec
func NewBMPCodec() *BMPCodec { return &BMPCodec{} }

// Encode serializes pixel data into a complete BMP byte stream
func (c *BMPCodec) Encode(params codec.EncodeParams) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, params); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a BMP byte stream into pixel data
func (c *BMPCodec) Decode(data []byte) (*codec.DecodeResult, error) {
	return Decode(bytes.NewReader(data))
}

// Magic returns the BMP signature prefix
func (c *BMPCodec) Magic() string { return "BM????\x00\x00\x00\x00" }

// Name returns a human-readable name for this codec
func (c *BMPCodec) Name() string { return "bmp" }

// init automatically registers the codec
func init() {
	codec.Register(NewBMPCodec())
}
