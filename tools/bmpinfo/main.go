// bmpinfo dumps the header structure of BMP files and optionally decodes
// the pixel data to report a CRC32 of the resolved buffer.
//
// Usage: bmpinfo [-pixels] <file.bmp> [...]
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/icefoxen/image-bmp/bmp"
)

var decodePixels = flag.Bool("pixels", false, "decode the pixel data and report its CRC32")

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: bmpinfo [-pixels] <file.bmp> [...]")
		os.Exit(2)
	}

	log := logrus.New()
	failed := false
	for _, path := range flag.Args() {
		if err := inspect(log, path); err != nil {
			log.WithField("file", path).WithError(err).Error("inspect failed")
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(log *logrus.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := bmp.NewDecoder(f)
	if err != nil {
		return err
	}
	desc := d.Descriptor()

	entry := log.WithFields(logrus.Fields{
		"file":        path,
		"header":      desc.HeaderSize,
		"width":       desc.Width,
		"height":      desc.Height,
		"topDown":     desc.TopDown,
		"bpp":         desc.BitsPerPixel,
		"compression": desc.Compression.String(),
		"palette":     desc.PaletteSize,
		"dataOffset":  desc.DataOffset,
	})
	if desc.Compression == bmp.CompressionBitfields {
		entry = entry.WithField("masks", fmt.Sprintf("r=%#x g=%#x b=%#x a=%#x",
			desc.Masks.R, desc.Masks.G, desc.Masks.B, desc.Masks.A))
	}
	entry.Info("header")

	if !*decodePixels {
		return nil
	}
	res, err := d.ReadImageData()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"file":       path,
		"components": res.Components,
		"bytes":      len(res.PixelData),
		"crc32":      fmt.Sprintf("%08x", crc32.ChecksumIEEE(res.PixelData)),
	}).Info("pixels")
	return nil
}
