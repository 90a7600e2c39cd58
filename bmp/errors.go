package bmp

// A FormatError reports that the input violates the structural contract of
// the BMP format (bad signature, inconsistent dimensions, truncated data,
// out-of-range palette index, arithmetic overflow).
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// An UnsupportedError reports that the input is structurally valid BMP but
// uses a recognized feature this codec does not implement. Callers may choose
// to skip such inputs rather than treat them as corrupt.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bmp: unsupported feature: " + string(e) }
