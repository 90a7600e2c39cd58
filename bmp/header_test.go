package bmp

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// bmpSpec assembles hand-crafted (possibly malformed) BMP byte streams.
type bmpSpec struct {
	width, height int32
	bpp           uint16
	planes        uint16 // 0 means 1
	compression   uint32
	clrUsed       uint32
	headerSize    uint32 // 0 means 40
	palette       []byte // raw palette bytes as stored on disk
	masks         []byte // mask bytes: a 12-byte segment (40-byte header) or 16 inline bytes (V4/V5)
	gap           uint32 // extra bytes between headers and pixel data
	data          []byte
}

func buildBMP(s bmpSpec) []byte {
	hs := int(s.headerSize)
	if hs == 0 {
		hs = 40
	}
	planes := s.planes
	if planes == 0 {
		planes = 1
	}

	info := make([]byte, hs)
	binary.LittleEndian.PutUint32(info[0:], uint32(hs))
	binary.LittleEndian.PutUint32(info[4:], uint32(s.width))
	binary.LittleEndian.PutUint32(info[8:], uint32(s.height))
	binary.LittleEndian.PutUint16(info[12:], planes)
	binary.LittleEndian.PutUint16(info[14:], s.bpp)
	binary.LittleEndian.PutUint32(info[16:], s.compression)
	binary.LittleEndian.PutUint32(info[32:], s.clrUsed)

	var segment []byte
	if len(s.masks) > 0 {
		if hs >= v4InfoHeaderLen {
			copy(info[40:], s.masks)
		} else {
			segment = s.masks
		}
	}

	offset := fileHeaderLen + hs + len(segment) + len(s.palette) + int(s.gap)
	var buf bytes.Buffer
	fh := make([]byte, fileHeaderLen)
	fh[0], fh[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(fh[2:], uint32(offset+len(s.data)))
	binary.LittleEndian.PutUint32(fh[10:], uint32(offset))
	buf.Write(fh)
	buf.Write(info)
	buf.Write(segment)
	buf.Write(s.palette)
	buf.Write(make([]byte, s.gap))
	buf.Write(s.data)
	return buf.Bytes()
}

func TestReadDescriptor(t *testing.T) {
	grayPal := []byte{
		0x00, 0x00, 0x00, 0x00,
		0xff, 0xff, 0xff, 0x00,
	}

	d, err := readDescriptor(bytes.NewReader(buildBMP(bmpSpec{
		width: 7, height: 3, bpp: 1, clrUsed: 2, palette: grayPal,
	})))
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if d.Width != 7 || d.Height != 3 {
		t.Errorf("dimensions = %dx%d, want 7x3", d.Width, d.Height)
	}
	if d.TopDown {
		t.Error("TopDown = true, want false")
	}
	if d.BitsPerPixel != 1 || d.Compression != CompressionNone {
		t.Errorf("bpp/compression = %d/%v", d.BitsPerPixel, d.Compression)
	}
	if d.PaletteSize != 2 {
		t.Errorf("PaletteSize = %d, want 2", d.PaletteSize)
	}
}

func TestReadDescriptorTopDown(t *testing.T) {
	d, err := readDescriptor(bytes.NewReader(buildBMP(bmpSpec{width: 4, height: -5, bpp: 24})))
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if !d.TopDown {
		t.Error("TopDown = false, want true")
	}
	if d.Height != 5 {
		t.Errorf("Height = %d, want 5", d.Height)
	}
}

func TestReadDescriptorImpliedPalette(t *testing.T) {
	// Zero biClrUsed at 4 bpp implies a 16-entry palette.
	d, err := readDescriptor(bytes.NewReader(buildBMP(bmpSpec{
		width: 2, height: 2, bpp: 4, palette: make([]byte, 16*4),
	})))
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if d.PaletteSize != 16 {
		t.Errorf("PaletteSize = %d, want 16", d.PaletteSize)
	}
}

func TestReadDescriptorDefaultMasks(t *testing.T) {
	d, err := readDescriptor(bytes.NewReader(buildBMP(bmpSpec{width: 2, height: 2, bpp: 16})))
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if d.Masks.R != 0x7c00 || d.Masks.G != 0x03e0 || d.Masks.B != 0x001f {
		t.Errorf("16-bit default masks = %+v, want RGB555", d.Masks)
	}
	if d.Components() != 3 {
		t.Errorf("Components() = %d, want 3", d.Components())
	}
}

func TestReadDescriptorBitfieldsSegment(t *testing.T) {
	// 40-byte header with BI_BITFIELDS reads a 12-byte mask segment.
	masks := make([]byte, 12)
	binary.LittleEndian.PutUint32(masks[0:], 0xf800)
	binary.LittleEndian.PutUint32(masks[4:], 0x07e0)
	binary.LittleEndian.PutUint32(masks[8:], 0x001f)
	d, err := readDescriptor(bytes.NewReader(buildBMP(bmpSpec{
		width: 2, height: 2, bpp: 16, compression: uint32(CompressionBitfields), masks: masks,
	})))
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if d.Masks.R != 0xf800 || d.Masks.G != 0x07e0 || d.Masks.B != 0x001f || d.Masks.A != 0 {
		t.Errorf("masks = %+v, want RGB565", d.Masks)
	}
}

func TestReadDescriptorV4AlphaMask(t *testing.T) {
	masks := make([]byte, 16)
	binary.LittleEndian.PutUint32(masks[0:], 0x00ff0000)
	binary.LittleEndian.PutUint32(masks[4:], 0x0000ff00)
	binary.LittleEndian.PutUint32(masks[8:], 0x000000ff)
	binary.LittleEndian.PutUint32(masks[12:], 0xff000000)
	d, err := readDescriptor(bytes.NewReader(buildBMP(bmpSpec{
		width: 2, height: 2, bpp: 32, compression: uint32(CompressionBitfields),
		headerSize: v4InfoHeaderLen, masks: masks,
	})))
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if d.Masks.A != 0xff000000 {
		t.Errorf("alpha mask = %#x, want 0xff000000", d.Masks.A)
	}
	if d.Components() != 4 {
		t.Errorf("Components() = %d, want 4", d.Components())
	}
}

func TestReadDescriptorCoreHeader(t *testing.T) {
	// The 12-byte BITMAPCOREHEADER has 16-bit dimensions and BGR palette
	// triples; build it by hand.
	var buf bytes.Buffer
	fh := make([]byte, fileHeaderLen)
	fh[0], fh[1] = 'B', 'M'
	pal := make([]byte, 2*3)
	binary.LittleEndian.PutUint32(fh[10:], uint32(fileHeaderLen+coreHeaderLen+len(pal)))
	buf.Write(fh)
	core := make([]byte, coreHeaderLen)
	binary.LittleEndian.PutUint32(core[0:], coreHeaderLen)
	binary.LittleEndian.PutUint16(core[4:], 6)  // width
	binary.LittleEndian.PutUint16(core[6:], 2)  // height
	binary.LittleEndian.PutUint16(core[8:], 1)  // planes
	binary.LittleEndian.PutUint16(core[10:], 1) // bit count
	buf.Write(core)
	buf.Write(pal)

	d, err := readDescriptor(&buf)
	if err != nil {
		t.Fatalf("readDescriptor failed: %v", err)
	}
	if d.Width != 6 || d.Height != 2 || d.BitsPerPixel != 1 {
		t.Errorf("got %dx%d at %d bpp, want 6x2 at 1 bpp", d.Width, d.Height, d.BitsPerPixel)
	}
	if d.PaletteSize != 2 || d.palEntrySize != 3 {
		t.Errorf("palette = %d entries of %d bytes, want 2 of 3", d.PaletteSize, d.palEntrySize)
	}
}

func TestReadDescriptorRejects(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		wantFormat  bool // expect FormatError; otherwise UnsupportedError
	}{
		{
			name:       "bad signature",
			data:       []byte("PNG not a bitmap at all, padded out to be long enough"),
			wantFormat: true,
		},
		{
			name: "unknown DIB header size",
			data: buildBMP(bmpSpec{width: 2, height: 2, bpp: 24, headerSize: 64}),
		},
		{
			name:       "zero width",
			data:       buildBMP(bmpSpec{width: 0, height: 2, bpp: 24}),
			wantFormat: true,
		},
		{
			name:       "negative width",
			data:       buildBMP(bmpSpec{width: -3, height: 2, bpp: 24}),
			wantFormat: true,
		},
		{
			name:       "zero height",
			data:       buildBMP(bmpSpec{width: 2, height: 0, bpp: 24}),
			wantFormat: true,
		},
		{
			name: "bad planes",
			data: buildBMP(bmpSpec{width: 2, height: 2, bpp: 24, planes: 3}),
		},
		{
			name: "zero bit count",
			data: buildBMP(bmpSpec{width: 2, height: 2, bpp: 0}),
		},
		{
			name:       "bad bit count",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 7}),
			wantFormat: true,
		},
		{
			name: "unknown compression",
			data: buildBMP(bmpSpec{width: 2, height: 2, bpp: 24, compression: 6}),
		},
		{
			name:       "RLE4 at 8 bpp",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 8, compression: uint32(CompressionRLE4), clrUsed: 2, palette: make([]byte, 8)}),
			wantFormat: true,
		},
		{
			name:       "RLE8 at 4 bpp",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 4, compression: uint32(CompressionRLE8), clrUsed: 2, palette: make([]byte, 8)}),
			wantFormat: true,
		},
		{
			name:       "top-down RLE",
			data:       buildBMP(bmpSpec{width: 2, height: -2, bpp: 8, compression: uint32(CompressionRLE8), clrUsed: 2, palette: make([]byte, 8)}),
			wantFormat: true,
		},
		{
			name:       "bitfields at 24 bpp",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 24, compression: uint32(CompressionBitfields), masks: make([]byte, 12)}),
			wantFormat: true,
		},
		{
			name:       "oversized palette",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 4, clrUsed: 17, palette: make([]byte, 17*4)}),
			wantFormat: true,
		},
		{
			name:       "oversized optimization palette",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 24, clrUsed: 100000}),
			wantFormat: true,
		},
		{
			name:       "truncated header",
			data:       buildBMP(bmpSpec{width: 2, height: 2, bpp: 24})[:20],
			wantFormat: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readDescriptor(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("readDescriptor succeeded, want error")
			}
			_, isFormat := err.(FormatError)
			_, isUnsupported := err.(UnsupportedError)
			if tt.wantFormat && !isFormat {
				t.Errorf("error = %v (%T), want FormatError", err, err)
			}
			if !tt.wantFormat && !isUnsupported {
				t.Errorf("error = %v (%T), want UnsupportedError", err, err)
			}
		})
	}
}

// A header may declare dimensions that would need gigabytes of pixel
// storage, or whose byte count wraps 64-bit arithmetic entirely; both must
// be rejected before any proportional allocation.
func TestReadDescriptorAllocationCeiling(t *testing.T) {
	tests := []struct {
		name          string
		width, height int32
	}{
		{"32 GiB of RGBA", 0x40000, 0x8000},
		{"product wraps int64", 0x7fffffff, 0x7fffffff},
		{"max width", 0x7fffffff, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildBMP(bmpSpec{width: tt.width, height: tt.height, bpp: 32})
			_, err := readDescriptor(bytes.NewReader(data))
			if err == nil {
				t.Fatal("readDescriptor succeeded, want error")
			}
			if _, ok := err.(FormatError); !ok {
				t.Errorf("error = %v (%T), want FormatError", err, err)
			}
			t.Logf("rejected with: %v", err)

			if _, err := Decode(bytes.NewReader(data)); err == nil {
				t.Error("Decode succeeded, want error")
			}
		})
	}
}
