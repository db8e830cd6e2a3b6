// Package imaging prepares photos for the classifier and for storage:
// bounded JPEG payloads, bird-centred crops and small thumbnails.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"net/http"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const (
	componentName = "imaging"

	// DefaultMaxDimension caps the longest side sent to the classifier.
	DefaultMaxDimension = 1024
	// DefaultQuality is the JPEG quality of transcoded payloads.
	DefaultQuality = 85

	mimeJPEG = "image/jpeg"
)

// Payload is an encoded image ready for transmission.
type Payload struct {
	Data []byte
	MIME string
	// Transcoded is false when decoding failed and Data is the original input.
	Transcoded bool
}

// DataURL renders the payload as a base64 data URL.
func (p Payload) DataURL() string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Transcoder normalizes images into bounded JPEG payloads.
type Transcoder struct {
	maxDimension int
	quality      int
	log          logger.Logger
}

// NewTranscoder creates a Transcoder. Non-positive values use the defaults.
func NewTranscoder(maxDimension, quality int, log logger.Logger) *Transcoder {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	return &Transcoder{maxDimension: maxDimension, quality: quality, log: log}
}

// Transcode decodes data, converts it to RGB or greyscale, downsizes it so
// the longest side fits the cap and re-encodes it as JPEG. When anything
// fails the original bytes are passed through unchanged.
func (t *Transcoder) Transcode(data []byte) Payload {
	img, err := Decode(data)
	if err == nil {
		var out []byte
		out, err = EncodeJPEG(Fit(img, t.maxDimension), t.quality)
		if err == nil {
			return Payload{Data: out, MIME: mimeJPEG, Transcoded: true}
		}
	}

	t.log.Debug("transcode failed, sending original bytes",
		logger.Int("bytes", len(data)),
		logger.Error(err))
	return Payload{Data: data, MIME: sniffMIME(data), Transcoded: false}
}

// Decode decodes any registered image format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryImageDecode).
			Context("bytes", len(data)).
			Build()
	}
	return img, nil
}

// EncodeJPEG encodes img as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryImageDecode).
			Context("operation", "encode_jpeg").
			Build()
	}
	return buf.Bytes(), nil
}

// Fit converts img to an opaque RGB or greyscale image no larger than
// maxDimension on its longest side, preserving aspect ratio.
func Fit(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)

	if longest > maxDimension && maxDimension > 0 {
		ratio := float64(maxDimension) / float64(longest)
		w = max(int(float64(w)*ratio), 1)
		h = max(int(float64(h)*ratio), 1)
	}

	dst, op := newCanvas(img, w, h)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, op)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, op, nil)
	return dst
}

// newCanvas keeps greyscale sources greyscale and everything else RGB.
// Sources that may carry transparency are composited over white.
func newCanvas(src image.Image, w, h int) (draw.Image, draw.Op) {
	r := image.Rect(0, 0, w, h)
	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return image.NewGray(r), draw.Src
	}
	dst := image.NewRGBA(r)
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return dst, draw.Src
	}
	draw.Draw(dst, r, image.White, image.Point{}, draw.Src)
	return dst, draw.Over
}

func sniffMIME(data []byte) string {
	if len(data) == 0 {
		return mimeJPEG
	}
	mime := http.DetectContentType(data)
	if mime == "application/octet-stream" {
		return mimeJPEG
	}
	return mime
}
