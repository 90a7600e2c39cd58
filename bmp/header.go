package bmp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Header lengths of the known DIB header generations. The length field at the
// start of the information header decides which layout is in use.
const (
	fileHeaderLen   = 14
	coreHeaderLen   = 12  // BITMAPCOREHEADER
	infoHeaderLen   = 40  // BITMAPINFOHEADER
	v4InfoHeaderLen = 108 // BITMAPV4HEADER
	v5InfoHeaderLen = 124 // BITMAPV5HEADER
)

// maxImageBytes bounds the decoded pixel buffer. A crafted header declaring
// enormous dimensions is rejected against this ceiling before any allocation
// proportional to width*height happens.
const maxImageBytes = 1 << 30

// Compression identifies the pixel-data encoding declared by the header.
type Compression uint32

const (
	CompressionNone      Compression = 0 // BI_RGB
	CompressionRLE8      Compression = 1 // BI_RLE8
	CompressionRLE4      Compression = 2 // BI_RLE4
	CompressionBitfields Compression = 3 // BI_BITFIELDS
)

// String returns the BI_* name of the compression kind.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "BI_RGB"
	case CompressionRLE8:
		return "BI_RLE8"
	case CompressionRLE4:
		return "BI_RLE4"
	case CompressionBitfields:
		return "BI_BITFIELDS"
	}
	return fmt.Sprintf("compression(%d)", uint32(c))
}

// ChannelMasks holds the per-channel bit masks for 16 and 32 bit-per-pixel
// images. A zero alpha mask means the image has no alpha channel.
type ChannelMasks struct {
	R, G, B, A uint32
}

// Descriptor is the normalized view of the file and information headers.
// It is constructed once per decode or encode call and immutable thereafter.
type Descriptor struct {
	Width        int
	Height       int  // always positive; orientation is carried by TopDown
	TopDown      bool // true when the header declared a negative height
	BitsPerPixel int
	Compression  Compression
	PaletteSize  int
	Masks        ChannelMasks
	DataOffset   uint32
	FileSize     uint32 // as declared by the file header, informational only
	HeaderSize   uint32

	palEntrySize int // 3 for BITMAPCOREHEADER, 4 otherwise
}

// Components returns the channel count of the decoded pixel buffer:
// 4 when the header declares an alpha mask, 3 otherwise.
func (d *Descriptor) Components() int {
	if d.Compression == CompressionBitfields && d.Masks.A != 0 {
		return 4
	}
	return 3
}

// readFull fills b, mapping early EOF to a format error: a stream that ends
// inside a structurally required region is corrupt, not merely short.
func readFull(r io.Reader, b []byte) error {
	if _, err := io.ReadFull(r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return FormatError("unexpected end of stream")
		}
		return err
	}
	return nil
}

// readDescriptor reads the file header and the information header from r and
// normalizes them into a Descriptor. On return the reader is positioned right
// after the headers (including the bitfields segment, when present).
func readDescriptor(r io.Reader) (*Descriptor, error) {
	var b [fileHeaderLen + v5InfoHeaderLen]byte
	if err := readFull(r, b[:fileHeaderLen+4]); err != nil {
		return nil, err
	}
	if b[0] != 'B' || b[1] != 'M' {
		return nil, FormatError("not a BMP file")
	}

	d := &Descriptor{
		FileSize:     binary.LittleEndian.Uint32(b[2:]),
		DataOffset:   binary.LittleEndian.Uint32(b[10:]),
		HeaderSize:   binary.LittleEndian.Uint32(b[14:]),
		palEntrySize: 4,
	}
	switch d.HeaderSize {
	case coreHeaderLen, infoHeaderLen, v4InfoHeaderLen, v5InfoHeaderLen:
	default:
		return nil, UnsupportedError(fmt.Sprintf("DIB header size %d", d.HeaderSize))
	}
	if err := readFull(r, b[fileHeaderLen+4:fileHeaderLen+d.HeaderSize]); err != nil {
		return nil, err
	}
	h := b[fileHeaderLen : fileHeaderLen+d.HeaderSize]

	var err error
	if d.HeaderSize == coreHeaderLen {
		err = d.parseCoreHeader(h)
	} else {
		err = d.parseInfoHeader(h)
	}
	if err != nil {
		return nil, err
	}

	// A 40-byte header with BI_BITFIELDS is followed by a 12-byte RGB mask
	// segment; the V4 and V5 headers carry the masks inline.
	if d.Compression == CompressionBitfields && d.HeaderSize == infoHeaderLen {
		var seg [12]byte
		if err := readFull(r, seg[:]); err != nil {
			return nil, err
		}
		d.Masks.R = binary.LittleEndian.Uint32(seg[0:])
		d.Masks.G = binary.LittleEndian.Uint32(seg[4:])
		d.Masks.B = binary.LittleEndian.Uint32(seg[8:])
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// parseCoreHeader decodes the 12-byte BITMAPCOREHEADER (h includes the
// length field). Dimensions are unsigned 16-bit and palette entries are
// RGB triples; compression does not exist in this generation.
func (d *Descriptor) parseCoreHeader(h []byte) error {
	d.Width = int(binary.LittleEndian.Uint16(h[4:]))
	d.Height = int(binary.LittleEndian.Uint16(h[6:]))
	if planes := binary.LittleEndian.Uint16(h[8:]); planes != 1 {
		return UnsupportedError(fmt.Sprintf("planes %d", planes))
	}
	d.BitsPerPixel = int(binary.LittleEndian.Uint16(h[10:]))
	d.palEntrySize = 3
	if d.BitsPerPixel >= 1 && d.BitsPerPixel <= 8 {
		d.PaletteSize = 1 << d.BitsPerPixel
	}
	return nil
}

// parseInfoHeader decodes the common 40-byte prefix shared by the
// BITMAPINFOHEADER, V4 and V5 layouts, plus the V4/V5 channel masks.
func (d *Descriptor) parseInfoHeader(h []byte) error {
	d.Width = int(int32(binary.LittleEndian.Uint32(h[4:])))
	d.Height = int(int32(binary.LittleEndian.Uint32(h[8:])))
	if d.Height < 0 {
		d.Height, d.TopDown = -d.Height, true
	}
	if planes := binary.LittleEndian.Uint16(h[12:]); planes != 1 {
		return UnsupportedError(fmt.Sprintf("planes %d", planes))
	}
	d.BitsPerPixel = int(binary.LittleEndian.Uint16(h[14:]))
	d.Compression = Compression(binary.LittleEndian.Uint32(h[16:]))

	colors := binary.LittleEndian.Uint32(h[32:])
	if colors > 1<<16 {
		return FormatError(fmt.Sprintf("declared palette size %d", colors))
	}
	if d.BitsPerPixel >= 1 && d.BitsPerPixel <= 8 {
		if colors == 0 {
			colors = uint32(1) << d.BitsPerPixel
		}
		if colors > uint32(1)<<d.BitsPerPixel {
			return FormatError(fmt.Sprintf("palette size %d exceeds %d-bit index range", colors, d.BitsPerPixel))
		}
		d.PaletteSize = int(colors)
	}
	// For bit depths above 8 a nonzero biClrUsed names an optimization
	// palette; it is not needed for decoding and is skipped via DataOffset.

	if d.HeaderSize >= v4InfoHeaderLen {
		d.Masks.R = binary.LittleEndian.Uint32(h[40:])
		d.Masks.G = binary.LittleEndian.Uint32(h[44:])
		d.Masks.B = binary.LittleEndian.Uint32(h[48:])
		d.Masks.A = binary.LittleEndian.Uint32(h[52:])
	}
	return nil
}

// validate enforces the structural invariants of the descriptor before any
// allocation proportional to the declared dimensions is made.
func (d *Descriptor) validate() error {
	if d.Width <= 0 {
		return FormatError(fmt.Sprintf("bad width %d", d.Width))
	}
	if d.Height == 0 {
		return FormatError("zero height")
	}

	switch d.BitsPerPixel {
	case 1, 4, 8, 16, 24, 32:
	case 0:
		return UnsupportedError("bit count 0")
	default:
		return FormatError(fmt.Sprintf("bad bit count %d", d.BitsPerPixel))
	}

	switch d.Compression {
	case CompressionNone:
	case CompressionRLE4:
		if d.BitsPerPixel != 4 {
			return FormatError(fmt.Sprintf("RLE4 with bit count %d", d.BitsPerPixel))
		}
	case CompressionRLE8:
		if d.BitsPerPixel != 8 {
			return FormatError(fmt.Sprintf("RLE8 with bit count %d", d.BitsPerPixel))
		}
	case CompressionBitfields:
		if d.BitsPerPixel != 16 && d.BitsPerPixel != 32 {
			return FormatError(fmt.Sprintf("BITFIELDS with bit count %d", d.BitsPerPixel))
		}
		if d.Masks.R == 0 || d.Masks.G == 0 || d.Masks.B == 0 {
			return FormatError("zero channel mask")
		}
	default:
		return UnsupportedError(d.Compression.String())
	}
	if (d.Compression == CompressionRLE4 || d.Compression == CompressionRLE8) && d.TopDown {
		return FormatError("top-down RLE image")
	}

	// Apply the implied masks so the 16/32-bit decode path is uniform.
	if d.Compression == CompressionNone {
		switch d.BitsPerPixel {
		case 16:
			d.Masks = ChannelMasks{R: 0x7c00, G: 0x03e0, B: 0x001f} // RGB555
		case 32:
			d.Masks = ChannelMasks{R: 0xff0000, G: 0x00ff00, B: 0x0000ff}
		}
	}

	// The ceiling guards the pixel buffer (up to 4 channel bytes per pixel)
	// and, transitively, the single-row scanline buffer. Width and height
	// each fit in 32 bits, so their int64 product cannot wrap; dividing the
	// ceiling instead of multiplying by the channel count keeps it that way.
	if int64(d.Width)*int64(d.Height) > maxImageBytes/4 {
		return FormatError(fmt.Sprintf("%dx%d image exceeds the decoder allocation limit", d.Width, d.Height))
	}
	return nil
}

// headerEnd returns the stream offset right after the headers, the bitfields
// segment (when present) and the palette.
func (d *Descriptor) headerEnd() int64 {
	end := int64(fileHeaderLen) + int64(d.HeaderSize) + int64(d.PaletteSize)*int64(d.palEntrySize)
	if d.Compression == CompressionBitfields && d.HeaderSize == infoHeaderLen {
		end += 12
	}
	return end
}
