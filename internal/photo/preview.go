package photo

import (
	"bytes"

	"github.com/birdeye-app/birdeye/internal/errors"
)

// MinPreviewSize is the smallest embedded JPEG accepted as a preview.
// Embedded thumbnails are reliably below it.
const MinPreviewSize = 50 * 1024

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// ErrNoPreview is returned when a RAW container holds no usable JPEG preview.
var ErrNoPreview = errors.NewStd("no embedded JPEG preview found")

// ExtractPreview returns the displayable JPEG for filename. Non-RAW inputs
// are returned unchanged. For RAW inputs the largest embedded JPEG over
// MinPreviewSize is returned, or ErrNoPreview when there is none.
func ExtractPreview(data []byte, filename string) ([]byte, error) {
	if !IsRAW(filename) {
		return data, nil
	}
	preview, ok := LargestEmbeddedJPEG(data)
	if !ok {
		return nil, ErrNoPreview
	}
	return preview, nil
}

// LargestEmbeddedJPEG scans data for SOI…EOI spans and returns the largest
// one whose length exceeds MinPreviewSize. Each span ends at the first EOI
// after its SOI and scanning resumes after that EOI.
func LargestEmbeddedJPEG(data []byte) ([]byte, bool) {
	var best []byte
	pos := 0
	for pos < len(data) {
		soi := bytes.Index(data[pos:], jpegSOI)
		if soi < 0 {
			break
		}
		soi += pos

		eoi := bytes.Index(data[soi+2:], jpegEOI)
		if eoi < 0 {
			break
		}
		end := soi + 2 + eoi + 2

		if span := data[soi:end]; len(span) > MinPreviewSize && len(span) > len(best) {
			best = span
		}
		pos = end
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
