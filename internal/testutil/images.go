// Package testutil provides shared image fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// ExifFixture describes the tags written by JPEGWithExif. Empty fields are omitted.
type ExifFixture struct {
	DateTimeOriginal string // "2006:01:02 15:04:05"
	DateTime         string
	Lat, Lon         float64
	WithGPS          bool
}

// Gradient returns a w×h RGBA image with a deterministic colour ramp.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 128, A: 255})
		}
	}
	return img
}

// JPEG encodes a w×h gradient as JPEG.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, Gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// NoisyJPEG encodes a w×h image of pseudo random pixels. Noise defeats JPEG
// compression, which makes it easy to build previews over a size threshold.
func NoisyJPEG(t testing.TB, w, h int, seed uint32) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	s := seed | 1
	for i := range img.Pix {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		img.Pix[i] = uint8(s)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// JPEGWithExif returns a w×h JPEG carrying an APP1 EXIF segment built from fx.
func JPEGWithExif(t testing.TB, w, h int, fx ExifFixture) []byte {
	t.Helper()
	body := JPEG(t, w, h)
	require.True(t, len(body) > 2 && body[0] == 0xFF && body[1] == 0xD8)

	payload := append([]byte("Exif\x00\x00"), buildTIFF(fx)...)
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(body[2:])
	return out.Bytes()
}

// TIFFWithExif returns a bare little-endian TIFF carrying the tags of fx,
// shaped like the outer structure of a TIFF-based RAW file.
func TIFFWithExif(fx ExifFixture) []byte {
	return buildTIFF(fx)
}

// RAWContainer wraps the given JPEG blobs in a fake TIFF-like container with
// filler bytes between them, the way camera RAW files embed previews.
func RAWContainer(blobs ...[]byte) []byte {
	var out bytes.Buffer
	out.Write([]byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00})
	filler := bytes.Repeat([]byte{0x11, 0x22, 0x33}, 700)
	for _, b := range blobs {
		out.Write(filler)
		out.Write(b)
	}
	out.Write(filler)
	return out.Bytes()
}

const (
	tiffASCII    = 2
	tiffLong     = 4
	tiffRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte // payload; ≤4 bytes stored inline
}

func asciiEntry(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: tiffASCII, count: uint32(len(b)), data: b}
}

func dmsEntry(tag uint16, v float64) ifdEntry {
	v = math.Abs(v)
	deg := math.Floor(v)
	minF := (v - deg) * 60
	mins := math.Floor(minF)
	secs := (minF - mins) * 60

	var b bytes.Buffer
	for _, r := range [][2]uint32{
		{uint32(deg), 1},
		{uint32(mins), 1},
		{uint32(math.Round(secs * 10000)), 10000},
	} {
		_ = binary.Write(&b, binary.LittleEndian, r[0])
		_ = binary.Write(&b, binary.LittleEndian, r[1])
	}
	return ifdEntry{tag: tag, typ: tiffRational, count: 3, data: b.Bytes()}
}

// layoutIFD serialises entries at offset start and returns the bytes. Data
// larger than four bytes follows the IFD itself.
func layoutIFD(start uint32, entries []ifdEntry) []byte {
	dirLen := uint32(2 + 12*len(entries) + 4)
	extra := start + dirLen

	var dir, tail bytes.Buffer
	_ = binary.Write(&dir, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, binary.LittleEndian, e.tag)
		_ = binary.Write(&dir, binary.LittleEndian, e.typ)
		_ = binary.Write(&dir, binary.LittleEndian, e.count)
		if len(e.data) <= 4 {
			var inline [4]byte
			copy(inline[:], e.data)
			dir.Write(inline[:])
			continue
		}
		_ = binary.Write(&dir, binary.LittleEndian, extra+uint32(tail.Len()))
		tail.Write(e.data)
		if tail.Len()%2 == 1 {
			tail.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, binary.LittleEndian, uint32(0))
	return append(dir.Bytes(), tail.Bytes()...)
}

func longEntry(tag uint16, v uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return ifdEntry{tag: tag, typ: tiffLong, count: 1, data: b}
}

// buildTIFF returns a little-endian TIFF structure with IFD0, an EXIF IFD and
// optionally a GPS IFD.
func buildTIFF(fx ExifFixture) []byte {
	var exifEntries []ifdEntry
	if fx.DateTimeOriginal != "" {
		exifEntries = append(exifEntries, asciiEntry(0x9003, fx.DateTimeOriginal))
	}

	var gpsEntries []ifdEntry
	if fx.WithGPS {
		latRef, lonRef := "N", "E"
		if fx.Lat < 0 {
			latRef = "S"
		}
		if fx.Lon < 0 {
			lonRef = "W"
		}
		gpsEntries = []ifdEntry{
			asciiEntry(0x0001, latRef),
			dmsEntry(0x0002, fx.Lat),
			asciiEntry(0x0003, lonRef),
			dmsEntry(0x0004, fx.Lon),
		}
	}

	// IFD0 entries must be sorted by tag; pointers are patched after sizing.
	var ifd0 []ifdEntry
	if fx.DateTime != "" {
		ifd0 = append(ifd0, asciiEntry(0x0132, fx.DateTime))
	}
	ifd0 = append(ifd0, longEntry(0x8769, 0))
	if fx.WithGPS {
		ifd0 = append(ifd0, longEntry(0x8825, 0))
	}

	const headerLen = 8
	ifd0Bytes := layoutIFD(headerLen, ifd0)
	exifOffset := uint32(headerLen + len(ifd0Bytes))
	exifBytes := layoutIFD(exifOffset, exifEntries)
	gpsOffset := exifOffset + uint32(len(exifBytes))

	for i := range ifd0 {
		switch ifd0[i].tag {
		case 0x8769:
			ifd0[i] = longEntry(0x8769, exifOffset)
		case 0x8825:
			ifd0[i] = longEntry(0x8825, gpsOffset)
		}
	}
	ifd0Bytes = layoutIFD(headerLen, ifd0)

	var out bytes.Buffer
	out.Write([]byte{'I', 'I', 0x2A, 0x00})
	_ = binary.Write(&out, binary.LittleEndian, uint32(headerLen))
	out.Write(ifd0Bytes)
	out.Write(exifBytes)
	if fx.WithGPS {
		out.Write(layoutIFD(gpsOffset, gpsEntries))
	}
	return out.Bytes()
}
