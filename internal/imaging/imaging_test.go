package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/testutil"
)

func decodeConfig(t *testing.T, data []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg, format
}

func TestTranscodeDownscalesLongestSide(t *testing.T) {
	tr := NewTranscoder(1024, 85, logger.NewDiscard())
	p := tr.Transcode(testutil.JPEG(t, 2048, 1536))

	require.True(t, p.Transcoded)
	assert.Equal(t, "image/jpeg", p.MIME)
	cfg, format := decodeConfig(t, p.Data)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 768, cfg.Height)
}

func TestTranscodePortraitAndSmallInputs(t *testing.T) {
	tr := NewTranscoder(100, 85, logger.NewDiscard())

	cfg, _ := decodeConfig(t, tr.Transcode(testutil.JPEG(t, 50, 400)).Data)
	assert.Equal(t, 12, cfg.Width)
	assert.Equal(t, 100, cfg.Height)

	cfg, _ = decodeConfig(t, tr.Transcode(testutil.JPEG(t, 60, 40)).Data)
	assert.Equal(t, 60, cfg.Width, "small images keep their size")
	assert.Equal(t, 40, cfg.Height)
}

func TestTranscodeConvertsPNGWithAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	p := NewTranscoder(0, 0, logger.NewDiscard()).Transcode(buf.Bytes())
	require.True(t, p.Transcoded)
	_, format := decodeConfig(t, p.Data)
	assert.Equal(t, "jpeg", format)
}

func TestFitFlattensTransparencyOnWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	// left half opaque red, right half fully transparent
	for y := range 40 {
		for x := range 20 {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}

	for _, maxDim := range []int{40, 20} {
		out := Fit(src, maxDim)
		b := out.Bounds()
		require.Equal(t, maxDim, b.Dx())

		r, g, bl, a := out.At(b.Max.X-1, b.Max.Y/2).RGBA()
		assert.Equal(t, uint32(0xffff), a)
		assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, bl}, "transparent area is white at %d", maxDim)

		r, g, _, _ = out.At(0, b.Max.Y/2).RGBA()
		assert.InDelta(t, 200*0x101, r, 0x400)
		assert.Less(t, g, uint32(0x400))
	}

	// opaque sources are copied as they are
	opaque := testutil.Gradient(10, 10)
	assert.Equal(t, opaque.At(3, 4), Fit(opaque, 10).At(3, 4))
}

func TestTranscodeKeepsGreyscale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	p := NewTranscoder(20, 85, logger.NewDiscard()).Transcode(buf.Bytes())
	img, err := jpeg.Decode(bytes.NewReader(p.Data))
	require.NoError(t, err)
	assert.Equal(t, color.GrayModel, img.ColorModel())
	assert.Equal(t, 20, img.Bounds().Dx())
}

func TestTranscodeFallsBackToOriginal(t *testing.T) {
	garbage := []byte("definitely not an image")
	p := NewTranscoder(1024, 85, logger.NewDiscard()).Transcode(garbage)

	assert.False(t, p.Transcoded)
	assert.Equal(t, garbage, p.Data)
	assert.True(t, strings.HasPrefix(p.DataURL(), "data:text/plain"))
}

func TestPayloadDataURL(t *testing.T) {
	p := Payload{Data: []byte{1, 2, 3}, MIME: "image/jpeg"}
	assert.Equal(t, "data:image/jpeg;base64,AQID", p.DataURL())
}

func TestCropToBird(t *testing.T) {
	img := testutil.Gradient(200, 100)

	tests := []struct {
		name         string
		bbox         []float64
		wantW, wantH int
	}{
		{"centre box padded", []float64{40, 40, 60, 60}, 52, 26},
		{"clamped to frame", []float64{0, 0, 20, 20}, 46, 23},
		{"nearly full frame untouched", []float64{5, 5, 95, 95}, 200, 100},
		{"inverted box untouched", []float64{60, 40, 40, 60}, 200, 100},
		{"wrong length untouched", []float64{10, 10, 20}, 200, 100},
		{"nil untouched", nil, 200, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CropToBird(img, tt.bbox, DefaultCropPadding)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestCropToBirdKeepsPixels(t *testing.T) {
	img := testutil.Gradient(200, 100)
	out := CropToBird(img, []float64{40, 40, 60, 60}, 0)

	// box starts at (80, 40)
	assert.Equal(t, img.At(80, 40), out.At(0, 0))
}

func TestThumbnail(t *testing.T) {
	thumb, err := Thumbnail(testutil.JPEG(t, 1000, 500), []float64{10, 10, 30, 30}, 320)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(thumb)
	require.NoError(t, err)
	cfg, _ := decodeConfig(t, raw)
	assert.LessOrEqual(t, max(cfg.Width, cfg.Height), 320)

	_, err = Thumbnail([]byte("nope"), nil, 320)
	assert.Error(t, err)
}
