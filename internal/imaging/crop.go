package imaging

import (
	"encoding/base64"
	"image"

	"golang.org/x/image/draw"
)

const (
	// DefaultCropPadding widens the bird box on each side by this share of its size.
	DefaultCropPadding = 0.15
	// maxCropCoverage skips cropping when the padded box is nearly the whole frame.
	maxCropCoverage = 0.85
	// DefaultThumbnailSize is the longest side of stored thumbnails.
	DefaultThumbnailSize = 320
)

// CropToBird crops img to the bounding box given in 0-100 percent
// coordinates [x1, y1, x2, y2], padded by padding of the box size on each
// side. An invalid box, or one that already covers most of the frame,
// returns img unchanged.
func CropToBird(img image.Image, bbox []float64, padding float64) image.Image {
	if len(bbox) != 4 {
		return img
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	x1 := int(float64(width) * bbox[0] / 100)
	y1 := int(float64(height) * bbox[1] / 100)
	x2 := int(float64(width) * bbox[2] / 100)
	y2 := int(float64(height) * bbox[3] / 100)
	if x2 <= x1 || y2 <= y1 {
		return img
	}

	padX := int(float64(x2-x1) * padding)
	padY := int(float64(y2-y1) * padding)
	cropX1 := max(0, x1-padX)
	cropY1 := max(0, y1-padY)
	cropX2 := min(width, x2+padX)
	cropY2 := min(height, y2+padY)

	cropArea := (cropX2 - cropX1) * (cropY2 - cropY1)
	if float64(cropArea) > float64(width*height)*maxCropCoverage {
		return img
	}

	rect := image.Rect(cropX1, cropY1, cropX2, cropY2).Add(b.Min)
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// Thumbnail decodes data, crops it to the bird when a box is known and
// returns a base64 JPEG no larger than maxDimension. An undecodable input
// yields an error; callers store records without a thumbnail then.
func Thumbnail(data []byte, bbox []float64, maxDimension int) (string, error) {
	img, err := Decode(data)
	if err != nil {
		return "", err
	}
	if maxDimension <= 0 {
		maxDimension = DefaultThumbnailSize
	}
	img = CropToBird(img, bbox, DefaultCropPadding)
	out, err := EncodeJPEG(Fit(img, maxDimension), DefaultQuality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}
