package bmp

import (
	"encoding/binary"
	"math/bits"

	"github.com/icefoxen/image-bmp/codec"
)

// rowDecoder converts one encoded scanline (without orientation concerns)
// into resolved channel bytes. src is the padded on-disk row, dst the
// destination slice of exactly width*components bytes.
type rowDecoder func(src, dst []byte) error

// newRowDecoder selects the decode strategy for the descriptor's
// (bit depth, compression) combination. RLE streams are decompressed to
// plain indices first and resolved with newIndexResolver instead.
func newRowDecoder(d *Descriptor, pal []codec.PaletteEntry) (rowDecoder, error) {
	switch d.BitsPerPixel {
	case 1, 4, 8:
		return newIndexedRowDecoder(d.Width, d.BitsPerPixel, pal), nil
	case 24:
		return newRGB24RowDecoder(d.Width), nil
	case 16, 32:
		return newMaskedRowDecoder(d)
	}
	return nil, UnsupportedError("bit depth")
}

// newIndexedRowDecoder unpacks sub-byte palette indices in
// most-significant-bit-first order and resolves them to RGB triples.
func newIndexedRowDecoder(width, bpp int, pal []codec.PaletteEntry) rowDecoder {
	return func(src, dst []byte) error {
		for x := 0; x < width; x++ {
			shift := uint(8 - bpp - (x*bpp)%8)
			idx := int(src[x*bpp/8]>>shift) & (1<<bpp - 1)
			if idx >= len(pal) {
				return errPaletteIndex(idx, len(pal))
			}
			dst[x*3+0] = pal[idx].R
			dst[x*3+1] = pal[idx].G
			dst[x*3+2] = pal[idx].B
		}
		return nil
	}
}

// newIndexResolver resolves rows of already-unpacked indices (one byte per
// pixel, as produced by the RLE decompressor) against the palette.
func newIndexResolver(width int, pal []codec.PaletteEntry) rowDecoder {
	return func(src, dst []byte) error {
		for x := 0; x < width; x++ {
			idx := int(src[x])
			if idx >= len(pal) {
				return errPaletteIndex(idx, len(pal))
			}
			dst[x*3+0] = pal[idx].R
			dst[x*3+1] = pal[idx].G
			dst[x*3+2] = pal[idx].B
		}
		return nil
	}
}

// newRGB24RowDecoder reorders the blue-green-red source bytes into RGB.
func newRGB24RowDecoder(width int) rowDecoder {
	return func(src, dst []byte) error {
		for x := 0; x < width; x++ {
			dst[x*3+0] = src[x*3+2]
			dst[x*3+1] = src[x*3+1]
			dst[x*3+2] = src[x*3+0]
		}
		return nil
	}
}

// maskField is one channel of a bitfields pixel layout.
type maskField struct {
	mask  uint32
	shift uint
	width uint // significant bits after shifting
}

func newMaskField(mask uint32) (maskField, error) {
	f := maskField{mask: mask}
	if mask == 0 {
		return f, nil
	}
	f.shift = uint(bits.TrailingZeros32(mask))
	body := mask >> f.shift
	if body&(body+1) != 0 {
		return f, FormatError("non-contiguous channel mask")
	}
	f.width = uint(bits.Len32(body))
	return f, nil
}

// scale8 extracts the channel and widens it to 8 bits by bit replication:
// the extracted bits are repeated downward to fill the output width, so a
// full channel maps to exactly 255 and zero stays zero. Channels wider than
// 8 bits keep their top 8 bits. (The BMP format leaves this scaling rule to
// the implementation; bit replication is the rule chosen here.)
func (f maskField) scale8(v uint32) uint8 {
	s := (v & f.mask) >> f.shift
	if f.width >= 8 {
		return uint8(s >> (f.width - 8))
	}
	s <<= 8 - f.width
	for filled := f.width; filled < 8; filled *= 2 {
		s |= s >> filled
	}
	return uint8(s)
}

// newMaskedRowDecoder handles 16 and 32 bit-per-pixel rows through the
// descriptor's channel masks. The alpha channel is emitted only when the
// header explicitly declared an alpha mask; otherwise pixels are opaque and
// any leftover source bits are ignored.
func newMaskedRowDecoder(d *Descriptor) (rowDecoder, error) {
	var rf, gf, bf, af maskField
	var err error
	if rf, err = newMaskField(d.Masks.R); err != nil {
		return nil, err
	}
	if gf, err = newMaskField(d.Masks.G); err != nil {
		return nil, err
	}
	if bf, err = newMaskField(d.Masks.B); err != nil {
		return nil, err
	}
	if af, err = newMaskField(d.Masks.A); err != nil {
		return nil, err
	}

	width := d.Width
	bytesPerPixel := d.BitsPerPixel / 8
	components := d.Components()
	return func(src, dst []byte) error {
		for x := 0; x < width; x++ {
			var v uint32
			if bytesPerPixel == 2 {
				v = uint32(binary.LittleEndian.Uint16(src[x*2:]))
			} else {
				v = binary.LittleEndian.Uint32(src[x*4:])
			}
			p := dst[x*components:]
			p[0] = rf.scale8(v)
			p[1] = gf.scale8(v)
			p[2] = bf.scale8(v)
			if components == 4 {
				p[3] = af.scale8(v)
			}
		}
		return nil
	}, nil
}
