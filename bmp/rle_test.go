package bmp

import (
	"bytes"
	"testing"
)

func runRLE(t *testing.T, stream []byte, width, height, depth int) ([]byte, error) {
	t.Helper()
	rle := newRLEDecoder(bytes.NewReader(stream), width, height, depth)
	err := rle.run()
	return rle.out, err
}

func TestRLE8EncodedRuns(t *testing.T) {
	// 4x2 image: bottom row 3,3,3,7 then top row all 9.
	stream := []byte{
		0x03, 0x03, // run of 3 x index 3
		0x01, 0x07, // run of 1 x index 7
		0x00, 0x00, // end of line
		0x04, 0x09, // run of 4 x index 9
	}
	out, err := runRLE(t, stream, 4, 2, 8)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []byte{3, 3, 3, 7, 9, 9, 9, 9}
	if !bytes.Equal(out, want) {
		t.Errorf("indices = %v, want %v", out, want)
	}
}

func TestRLE8LiteralRunPadding(t *testing.T) {
	// A literal run of 3 indices occupies 4 source bytes (padded to even).
	stream := []byte{
		0x00, 0x03, 1, 2, 3, 0xee, // literal 1,2,3 plus a pad byte
		0x01, 0x04, // run of 1 x index 4
	}
	out, err := runRLE(t, stream, 4, 1, 8)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []byte{1, 2, 3, 4}
	if !bytes.Equal(out, want) {
		t.Errorf("indices = %v, want %v", out, want)
	}
}

func TestRLE4NibbleOrder(t *testing.T) {
	// Encoded runs alternate the two nibbles; literal runs unpack
	// most-significant nibble first.
	stream := []byte{
		0x03, 0x12, // 1,2,1
		0x00, 0x03, 0x45, 0x60, // literal 4,5,6 (two bytes is already even)
		0x02, 0x99, // 9,9
	}
	out, err := runRLE(t, stream, 8, 1, 4)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []byte{1, 2, 1, 4, 5, 6, 9, 9}
	if !bytes.Equal(out, want) {
		t.Errorf("indices = %v, want %v", out, want)
	}
}

func TestRLEDeltaSkipsKeepZero(t *testing.T) {
	// 4x2: emit one pixel, delta (2,1), fill what remains of the top row.
	stream := []byte{
		0x01, 0x05, // index 5 at (0, bottom)
		0x00, 0x02, 0x02, 0x01, // delta: x += 2, one row up
		0x01, 0x08, // index 8 at (3, top)
	}
	out, err := runRLE(t, stream, 4, 2, 8)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []byte{5, 0, 0, 0, 0, 0, 0, 8}
	if !bytes.Equal(out, want) {
		t.Errorf("indices = %v, want %v", out, want)
	}
}

func TestRLEEndOfLineSkipsRow(t *testing.T) {
	stream := []byte{
		0x01, 0x01, // one pixel
		0x00, 0x00, // rest of the row keeps zero
		0x03, 0x02, // full top row
	}
	out, err := runRLE(t, stream, 3, 2, 8)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []byte{1, 0, 0, 2, 2, 2}
	if !bytes.Equal(out, want) {
		t.Errorf("indices = %v, want %v", out, want)
	}
}

// An end-of-bitmap marker on a zero-area image terminates cleanly with
// nothing emitted; the same marker on a non-trivial image with pixels still
// missing is a format error.
func TestRLEEndOfBitmap(t *testing.T) {
	eob := []byte{0x00, 0x01}

	out, err := runRLE(t, eob, 4, 0, 8)
	if err != nil {
		t.Fatalf("zero-area run failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("zero-area image emitted %d indices", len(out))
	}

	_, err = runRLE(t, append([]byte{0x02, 0x01}, eob...), 4, 2, 8)
	if err == nil {
		t.Fatal("early end of bitmap accepted")
	}
	if _, ok := err.(FormatError); !ok {
		t.Errorf("error = %v (%T), want FormatError", err, err)
	}
}

func TestRLETerminatesWithoutTrailingMarkers(t *testing.T) {
	// Once width*height pixels are covered the decoder stops; trailing
	// end-of-line/end-of-bitmap markers are left unread.
	stream := []byte{
		0x02, 0x01,
		0x00, 0x00,
		0x02, 0x02,
		0x00, 0x00,
		0x00, 0x01,
	}
	out, err := runRLE(t, stream, 2, 2, 8)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []byte{1, 1, 2, 2}
	if !bytes.Equal(out, want) {
		t.Errorf("indices = %v, want %v", out, want)
	}
}

func TestRLERejects(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		width  int
		height int
	}{
		{"truncated mid-pair", []byte{0x04}, 4, 2},
		{"truncated mid-literal", []byte{0x00, 0x04, 1, 2}, 4, 2},
		{"truncated after delta escape", []byte{0x00, 0x02}, 4, 2},
		{"empty stream", nil, 4, 2},
		{"run past end of row", []byte{0x05, 0x01}, 4, 2},
		{"literal past end of row", []byte{0x00, 0x05, 1, 2, 3, 4, 5, 0}, 4, 2},
		{"delta out of bounds", []byte{0x00, 0x02, 0x01, 0x05}, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRLE(t, tt.stream, tt.width, tt.height, 8)
			if err == nil {
				t.Fatal("run succeeded, want error")
			}
			if _, ok := err.(FormatError); !ok {
				t.Errorf("error = %v (%T), want FormatError", err, err)
			}
		})
	}
}
