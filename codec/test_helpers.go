package codec

// SolidFrame builds a width*height pixel buffer where every pixel carries
// the given channel values. len(channels) determines the component count.
func SolidFrame(width, height int, channels ...byte) []byte {
	data := make([]byte, width*height*len(channels))
	for i := 0; i < width*height; i++ {
		copy(data[i*len(channels):], channels)
	}
	return data
}

// GradientFrame builds a width*height pixel buffer with the given component
// count, where each channel value varies with the pixel position. Useful for
// round-trip tests that need every row and column to be distinguishable.
func GradientFrame(width, height, components int) []byte {
	data := make([]byte, width*height*components)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := (y*width + x) * components
			for c := 0; c < components; c++ {
				data[base+c] = byte((x*7 + y*13 + c*31) % 256)
			}
		}
	}
	return data
}

// IndexFrame builds a width*height single-component buffer of palette indices
// cycling through [0, paletteSize).
func IndexFrame(width, height, paletteSize int) []byte {
	data := make([]byte, width*height)
	for i := range data {
		data[i] = byte(i % paletteSize)
	}
	return data
}

// GrayPalette builds a palette of n evenly spaced gray entries.
func GrayPalette(n int) []PaletteEntry {
	pal := make([]PaletteEntry, n)
	for i := range pal {
		var v uint8
		if n > 1 {
			v = uint8(i * 255 / (n - 1))
		}
		pal[i] = PaletteEntry{R: v, G: v, B: v}
	}
	return pal
}
