package bmp

import (
	"fmt"
	"io"
)

// The RLE decompressor is an explicit state machine over (count, value)
// byte pairs. A zero count escapes into end-of-line, end-of-bitmap, delta
// or literal-run handling; a nonzero count emits a run of indices.
type rleState int

const (
	rleCommand rleState = iota // at a (count, value) pair boundary
	rleLiteral                 // a literal run of pending pixels follows
	rleDelta                   // the two delta offset bytes follow
	rleDone
)

type rleDecoder struct {
	r      io.Reader
	width  int
	height int
	depth  int // 4 or 8

	state   rleState
	x, row  int // output cursor; rows count in stored (bottom-up) order
	literal int // pixels pending in the rleLiteral state

	// One palette index per pixel in stored row order. Pixels skipped by
	// end-of-line or delta escapes keep index zero.
	out []byte
}

func newRLEDecoder(r io.Reader, width, height, depth int) *rleDecoder {
	return &rleDecoder{
		r:      r,
		width:  width,
		height: height,
		depth:  depth,
		out:    make([]byte, width*height),
	}
}

// decodeRLE decompresses an RLE4 or RLE8 stream into one palette index per
// pixel, in the stored bottom-up row order.
func decodeRLE(r io.Reader, d *Descriptor) ([]byte, error) {
	rle := newRLEDecoder(r, d.Width, d.Height, d.BitsPerPixel)
	if err := rle.run(); err != nil {
		return nil, err
	}
	return rle.out, nil
}

func (d *rleDecoder) cursor() int { return d.row*d.width + d.x }

// run drives the state machine until the output cursor reaches exactly
// width*height pixels. The stream's own trailing end-of-bitmap marker, if
// any, is left unread; an end-of-bitmap marker seen before the image is
// complete is a format error, as is a truncated stream.
func (d *rleDecoder) run() error {
	total := d.width * d.height
	for d.state != rleDone {
		if d.cursor() == total {
			d.state = rleDone
			break
		}
		if err := d.step(); err != nil {
			return err
		}
	}
	return nil
}

// step performs one state transition.
func (d *rleDecoder) step() error {
	switch d.state {
	case rleLiteral:
		return d.stepLiteral()
	case rleDelta:
		return d.stepDelta()
	default:
		return d.stepCommand()
	}
}

// readBytes reads exactly len(b) bytes, treating truncation as a format
// error: an RLE stream must complete the image before it may end.
func (d *rleDecoder) readBytes(b []byte) error {
	if _, err := io.ReadFull(d.r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return FormatError("truncated RLE stream")
		}
		return err
	}
	return nil
}

func (d *rleDecoder) stepCommand() error {
	var b [2]byte
	if err := d.readBytes(b[:]); err != nil {
		return err
	}
	count, value := int(b[0]), b[1]

	if count > 0 {
		// Encoded run: count pixels of value (RLE4 alternates the two
		// nibbles of value).
		if d.x+count > d.width {
			return FormatError("RLE run past end of row")
		}
		for i := 0; i < count; i++ {
			v := value
			if d.depth == 4 {
				if i%2 == 0 {
					v = value >> 4
				} else {
					v = value & 0x0f
				}
			}
			d.out[d.cursor()] = v
			d.x++
		}
		return nil
	}

	switch value {
	case 0: // end of line: the rest of the row keeps index zero
		d.row++
		d.x = 0
	case 1: // end of bitmap
		// run() has already terminated if the image is complete, so
		// reaching this marker means pixels are missing.
		return FormatError("end of bitmap before image complete")
	case 2:
		d.state = rleDelta
	default: // value >= 3: that many literal indices follow
		if d.x+int(value) > d.width {
			return FormatError("RLE literal run past end of row")
		}
		d.literal = int(value)
		d.state = rleLiteral
	}
	return nil
}

// stepLiteral consumes a literal run: d.literal indices packed at the
// stream's bit depth, padded to an even byte count.
func (d *rleDecoder) stepLiteral() error {
	n := d.literal
	var size int
	if d.depth == 4 {
		size = (n + 1) / 2
	} else {
		size = n
	}
	size = (size + 1) &^ 1 // pad to an even byte count

	buf := make([]byte, size)
	if err := d.readBytes(buf); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var v byte
		if d.depth == 4 {
			v = buf[i/2]
			if i%2 == 0 {
				v >>= 4
			} else {
				v &= 0x0f
			}
		} else {
			v = buf[i]
		}
		d.out[d.cursor()] = v
		d.x++
	}
	d.literal = 0
	d.state = rleCommand
	return nil
}

// stepDelta advances the output cursor right and up without emitting
// pixels; the skipped pixels keep index zero.
func (d *rleDecoder) stepDelta() error {
	var b [2]byte
	if err := d.readBytes(b[:]); err != nil {
		return err
	}
	x, row := d.x+int(b[0]), d.row+int(b[1])
	if x > d.width || row > d.height || row*d.width+x > d.width*d.height {
		return FormatError(fmt.Sprintf("RLE delta (%d,%d) out of bounds", b[0], b[1]))
	}
	d.x, d.row = x, row
	d.state = rleCommand
	return nil
}
