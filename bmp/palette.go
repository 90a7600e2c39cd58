package bmp

import (
	"fmt"
	"io"

	"github.com/icefoxen/image-bmp/codec"
)

// readPalette reads the color table implied by the descriptor. Entries are
// stored blue-green-red on disk, followed by a reserved byte except in the
// 12-byte core header generation, which packs plain BGR triples.
func readPalette(r io.Reader, d *Descriptor) ([]codec.PaletteEntry, error) {
	if d.PaletteSize == 0 {
		return nil, nil
	}
	buf := make([]byte, d.PaletteSize*d.palEntrySize)
	if err := readFull(r, buf); err != nil {
		return nil, err
	}
	pal := make([]codec.PaletteEntry, d.PaletteSize)
	for i := range pal {
		e := buf[i*d.palEntrySize:]
		pal[i] = codec.PaletteEntry{R: e[2], G: e[1], B: e[0]}
		if d.palEntrySize == 4 {
			pal[i].Reserved = e[3]
		}
	}
	return pal, nil
}

// writePalette emits the color table as 4-byte BGRX entries.
func writePalette(w io.Writer, pal []codec.PaletteEntry) error {
	buf := make([]byte, len(pal)*4)
	for i, e := range pal {
		buf[i*4+0] = e.B
		buf[i*4+1] = e.G
		buf[i*4+2] = e.R
		buf[i*4+3] = e.Reserved
	}
	_, err := w.Write(buf)
	return err
}

func errPaletteIndex(idx, size int) error {
	return FormatError(fmt.Sprintf("palette index %d out of range (%d entries)", idx, size))
}
