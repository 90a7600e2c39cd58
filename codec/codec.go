package codec

// Codec is the universal interface for all image container codecs
type Codec interface {
	// Encode serializes pixel data into a complete, self-contained byte stream
	Encode(params EncodeParams) ([]byte, error)

	// Decode parses a byte stream into pixel data
	Decode(data []byte) (*DecodeResult, error)

	// Magic returns the signature prefix identifying the format.
	// A '?' byte matches any input byte.
	Magic() string

	// Name returns a human-readable name
	Name() string
}

// PaletteEntry is one color-table entry for indexed pixel formats.
// The Reserved byte carries whatever the container stores there (usually zero).
type PaletteEntry struct {
	R, G, B, Reserved uint8
}

// EncodeParams contains parameters for encoding
type EncodeParams struct {
	PixelData  []byte         // Raw pixel data, row-major, top row first
	Width      int            // Image width
	Height     int            // Image height
	Components int            // Channels per pixel (1=palette indices, 3=RGB, 4=RGBA)
	BitDepth   int            // Target bits per pixel in the container
	Palette    []PaletteEntry // Color table for indexed bit depths, nil otherwise
	Options    Options        // Codec-specific options
}

// Options is an interface for codec-specific encoding options
type Options interface {
	// Validate checks if the options are valid
	Validate() error
}

// DecodeResult contains the result of decoding
type DecodeResult struct {
	PixelData  []byte // Decoded pixel data, row-major, top row first
	Width      int    // Image width
	Height     int    // Image height
	Components int    // Channels per pixel (3=RGB, 4=RGBA)
	BitDepth   int    // Bits per channel sample (always 8 for BMP output)
}
