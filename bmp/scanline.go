package bmp

import "io"

// rowStride returns the on-disk size of one scanline. Rows are padded to a
// 4-byte boundary regardless of bit depth.
func rowStride(width, bpp int) int {
	return ((width*bpp + 31) / 32) * 4
}

// destRow maps a stored row index to its row in the output buffer. BMP
// stores rows bottom-up unless the header declared a negative height, and
// the output buffer is always top-down.
func destRow(srcRow, height int, topDown bool) int {
	if topDown {
		return srcRow
	}
	return height - 1 - srcRow
}

// assemble reads every scanline from r, strips the row padding, applies the
// vertical orientation and decodes the pixels into a packed row-major buffer
// with the top row first. decodeRow writes exactly width*components bytes
// per call. Orientation is handled here and nowhere else.
func assemble(r io.Reader, d *Descriptor, components int, decodeRow rowDecoder) ([]byte, error) {
	out := make([]byte, d.Width*d.Height*components)
	line := make([]byte, rowStride(d.Width, d.BitsPerPixel))
	for src := 0; src < d.Height; src++ {
		if err := readFull(r, line); err != nil {
			return nil, err
		}
		row := destRow(src, d.Height, d.TopDown)
		dst := out[row*d.Width*components : (row+1)*d.Width*components]
		if err := decodeRow(line, dst); err != nil {
			return nil, err
		}
	}
	return out, nil
}
