package bmp

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/icefoxen/image-bmp/codec"
)

// defaultPelsPerMeter is the resolution written when the caller does not
// set one (2835 pixels per meter, i.e. 72 DPI).
const defaultPelsPerMeter = 2835

// Options configures BMP encoding. The zero value emits a bottom-up image
// at 72 DPI.
type Options struct {
	// TopDown stores rows top-down, declared through a negative height.
	TopDown bool

	// Resolution in pixels per meter; zero selects the default.
	XPelsPerMeter int32
	YPelsPerMeter int32
}

// Validate checks if the options are valid
func (o *Options) Validate() error {
	if o.XPelsPerMeter < 0 || o.YPelsPerMeter < 0 {
		return codec.ErrInvalidParameter
	}
	return nil
}

type encoder struct {
	w      io.Writer
	params codec.EncodeParams
	opts   Options
	stride int
}

// Encode writes a complete, self-contained BMP byte stream for the given
// pixel buffer. The buffer is row-major with the top row first. Supported
// target bit depths:
//
//	1, 4, 8 - params.PixelData holds one palette index per pixel
//	          (Components == 1) and params.Palette is required
//	16      - RGB triples, packed as RGB555
//	24      - RGB triples, stored as BGR
//	32      - RGB triples or RGBA quadruples; a fourth component is stored
//	          in the reserved byte but not declared as an alpha channel
//
// Encoding always emits the uncompressed representation under a 40-byte
// information header, even for bit depths the format could run-length
// compress; this is a deliberate simplification, not a format limitation.
// Invalid buffer/parameter combinations surface as FormatError; sink
// failures pass through unchanged.
func Encode(w io.Writer, params codec.EncodeParams) error {
	e := &encoder{w: w, params: params}
	if params.Options != nil {
		if o, ok := params.Options.(*Options); ok {
			e.opts = *o
		}
		if err := params.Options.Validate(); err != nil {
			return err
		}
	}
	if err := e.validate(); err != nil {
		return err
	}
	e.stride = rowStride(params.Width, params.BitDepth)
	if err := e.writeHeaders(); err != nil {
		return err
	}
	if len(params.Palette) > 0 {
		if err := writePalette(e.w, params.Palette); err != nil {
			return err
		}
	}
	return e.writeRows()
}

func (e *encoder) validate() error {
	p := &e.params
	if p.Width <= 0 || p.Height <= 0 {
		return FormatError(fmt.Sprintf("bad dimensions %dx%d", p.Width, p.Height))
	}
	switch p.BitDepth {
	case 1, 4, 8:
		if p.Components != 1 {
			return FormatError(fmt.Sprintf("%d-bit encoding needs 1 component, got %d", p.BitDepth, p.Components))
		}
		if len(p.Palette) == 0 {
			return FormatError(fmt.Sprintf("%d-bit encoding needs a palette", p.BitDepth))
		}
		if len(p.Palette) > 1<<p.BitDepth {
			return FormatError(fmt.Sprintf("palette size %d exceeds %d-bit index range", len(p.Palette), p.BitDepth))
		}
	case 16, 24:
		if p.Components != 3 {
			return FormatError(fmt.Sprintf("%d-bit encoding needs 3 components, got %d", p.BitDepth, p.Components))
		}
	case 32:
		if p.Components != 3 && p.Components != 4 {
			return FormatError(fmt.Sprintf("32-bit encoding needs 3 or 4 components, got %d", p.Components))
		}
	default:
		return FormatError(fmt.Sprintf("bad target bit depth %d", p.BitDepth))
	}
	if p.BitDepth > 8 && len(p.Palette) > 0 {
		return FormatError(fmt.Sprintf("%d-bit encoding takes no palette", p.BitDepth))
	}
	if want := p.Width * p.Height * p.Components; len(p.PixelData) != want {
		return FormatError(fmt.Sprintf("pixel buffer is %d bytes, want %d", len(p.PixelData), want))
	}
	return nil
}

// writeHeaders emits the 14-byte file header and the 40-byte information
// header, the simplest supported header variant.
func (e *encoder) writeHeaders() error {
	p := &e.params
	dataOffset := fileHeaderLen + infoHeaderLen + 4*len(p.Palette)
	fileSize := dataOffset + e.stride*p.Height

	xppm, yppm := e.opts.XPelsPerMeter, e.opts.YPelsPerMeter
	if xppm == 0 {
		xppm = defaultPelsPerMeter
	}
	if yppm == 0 {
		yppm = defaultPelsPerMeter
	}
	height := int32(p.Height)
	if e.opts.TopDown {
		height = -height
	}

	var h [fileHeaderLen + infoHeaderLen]byte
	h[0], h[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(h[2:], uint32(fileSize))
	binary.LittleEndian.PutUint32(h[10:], uint32(dataOffset))

	binary.LittleEndian.PutUint32(h[14:], infoHeaderLen)
	binary.LittleEndian.PutUint32(h[18:], uint32(p.Width))
	binary.LittleEndian.PutUint32(h[22:], uint32(height))
	binary.LittleEndian.PutUint16(h[26:], 1) // planes
	binary.LittleEndian.PutUint16(h[28:], uint16(p.BitDepth))
	binary.LittleEndian.PutUint32(h[30:], uint32(CompressionNone))
	binary.LittleEndian.PutUint32(h[34:], uint32(e.stride*p.Height))
	binary.LittleEndian.PutUint32(h[38:], uint32(xppm))
	binary.LittleEndian.PutUint32(h[42:], uint32(yppm))
	binary.LittleEndian.PutUint32(h[46:], uint32(len(p.Palette)))

	_, err := e.w.Write(h[:])
	return err
}

// writeRows packs and writes every scanline, padded to a 4-byte boundary,
// in the stored row order (bottom-up unless Options.TopDown).
func (e *encoder) writeRows() error {
	p := &e.params
	line := make([]byte, e.stride)
	for stored := 0; stored < p.Height; stored++ {
		src := destRow(stored, p.Height, e.opts.TopDown)
		row := p.PixelData[src*p.Width*p.Components : (src+1)*p.Width*p.Components]
		if err := e.packRow(row, line); err != nil {
			return err
		}
		if _, err := e.w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// packRow converts one row of pixel data into its on-disk representation.
func (e *encoder) packRow(row, line []byte) error {
	p := &e.params
	switch p.BitDepth {
	case 1, 4, 8:
		for i := range line {
			line[i] = 0
		}
		bpp := p.BitDepth
		for x := 0; x < p.Width; x++ {
			idx := row[x]
			if int(idx) >= len(p.Palette) {
				return errPaletteIndex(int(idx), len(p.Palette))
			}
			shift := uint(8 - bpp - (x*bpp)%8)
			line[x*bpp/8] |= idx << shift
		}
	case 16:
		for x := 0; x < p.Width; x++ {
			r, g, b := row[x*3+0], row[x*3+1], row[x*3+2]
			v := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
			binary.LittleEndian.PutUint16(line[x*2:], v)
		}
	case 24:
		for x := 0; x < p.Width; x++ {
			line[x*3+0] = row[x*3+2]
			line[x*3+1] = row[x*3+1]
			line[x*3+2] = row[x*3+0]
		}
	case 32:
		n := p.Components
		for x := 0; x < p.Width; x++ {
			line[x*4+0] = row[x*n+2]
			line[x*4+1] = row[x*n+1]
			line[x*4+2] = row[x*n+0]
			if n == 4 {
				line[x*4+3] = row[x*n+3]
			} else {
				line[x*4+3] = 0
			}
		}
	}
	return nil
}
