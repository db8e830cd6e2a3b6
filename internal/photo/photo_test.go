package photo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/testutil"
)

func TestIsRAW(t *testing.T) {
	for _, name := range []string{"a.ARW", "b.cr2", "c.CR3", "d.nef", "e.dng", "f.raf", "g.orf", "h.rw2", "i.pef", "j.srw", "k.nrw"} {
		assert.True(t, IsRAW(name), name)
	}
	for _, name := range []string{"a.jpg", "b.png", "c.heic", "raw", "d.tiff"} {
		assert.False(t, IsRAW(name), name)
	}
}

func TestFingerprint(t *testing.T) {
	in := NewInput("IMG_1.JPG", []byte("abcdef"))
	assert.Equal(t, Fingerprint{Name: "IMG_1.JPG", Size: 6}, in.Fingerprint())
	assert.Equal(t, "IMG_1.JPG_6", in.Fingerprint().String())
	assert.Equal(t, ".jpg", in.Suffix())

	declared := Input{Data: []byte("abc"), Filename: "x.jpg", DeclaredSize: 99}
	assert.Equal(t, int64(99), declared.Fingerprint().Size)
}

func TestExtractPreviewPassesThroughNonRAW(t *testing.T) {
	data := []byte("not really a jpeg")
	out, err := ExtractPreview(data, "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestExtractPreviewPicksLargest(t *testing.T) {
	thumb := testutil.JPEG(t, 32, 32)
	medium := testutil.NoisyJPEG(t, 200, 200, 7)
	large := testutil.NoisyJPEG(t, 320, 320, 11)
	require.Less(t, len(thumb), MinPreviewSize)
	require.Greater(t, len(medium), MinPreviewSize)
	require.Greater(t, len(large), len(medium))

	raw := testutil.RAWContainer(thumb, large, medium)
	out, err := ExtractPreview(raw, "DSC0001.ARW")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(large, out))
}

func TestExtractPreviewReportsAbsence(t *testing.T) {
	raw := testutil.RAWContainer(testutil.JPEG(t, 32, 32))
	out, err := ExtractPreview(raw, "DSC0001.NEF")
	require.ErrorIs(t, err, ErrNoPreview)
	assert.Nil(t, out)

	_, err = ExtractPreview([]byte{0xFF, 0xD8, 0x00}, "x.cr2")
	assert.True(t, errors.Is(err, ErrNoPreview))
}

func TestLargestEmbeddedJPEGThreshold(t *testing.T) {
	span := append([]byte{0xFF, 0xD8}, make([]byte, MinPreviewSize-4)...)
	span = append(span, 0xFF, 0xD9)
	require.Len(t, span, MinPreviewSize)

	_, ok := LargestEmbeddedJPEG(span)
	assert.False(t, ok, "exactly 50 KiB is not a preview")

	bigger := append([]byte{0xFF, 0xD8}, make([]byte, MinPreviewSize-3)...)
	bigger = append(bigger, 0xFF, 0xD9)
	got, ok := LargestEmbeddedJPEG(bigger)
	assert.True(t, ok)
	assert.Len(t, got, MinPreviewSize+1)
}

func TestNormalizeShootTime(t *testing.T) {
	assert.Equal(t, "20240715_0830", NormalizeShootTime("2024:07:15 08:30:12"))
	assert.Equal(t, "20240715", NormalizeShootTime("2024:07:15"))
	assert.Equal(t, "", NormalizeShootTime(""))
}

func TestSeasonForMonth(t *testing.T) {
	want := map[int]Season{
		1: SeasonWinter, 2: SeasonWinter, 3: SeasonSpring, 4: SeasonSpring, 5: SeasonSpring,
		6: SeasonSummer, 7: SeasonSummer, 8: SeasonSummer, 9: SeasonAutumn, 10: SeasonAutumn,
		11: SeasonAutumn, 12: SeasonWinter, 0: SeasonUnknown, 13: SeasonUnknown,
	}
	for month, season := range want {
		assert.Equal(t, season, SeasonForMonth(month), "month %d", month)
	}
	assert.Equal(t, "summer/breeding", SeasonSummer.String())
	assert.Equal(t, "夏季（繁殖期，6-8月）", SeasonSummer.Label())
	assert.Empty(t, SeasonUnknown.Label())
}

func TestReadExifDateAndGPS(t *testing.T) {
	data := testutil.JPEGWithExif(t, 64, 48, testutil.ExifFixture{
		DateTimeOriginal: "2024:07:15 08:30:00",
		DateTime:         "2024:08:01 10:00:00",
		Lat:              39.9,
		Lon:              116.4,
		WithGPS:          true,
	})

	info := NewMetadataReader(logger.NewDiscard()).Read(data, "beijing.jpg")

	assert.Equal(t, "20240715_0830", info.ShootTime)
	assert.Equal(t, "20240715", info.ShootDate())
	assert.Equal(t, SeasonSummer, info.Season())
	require.True(t, info.HasGPS())
	assert.InDelta(t, 39.9, *info.GPSLat, 1e-4)
	assert.InDelta(t, 116.4, *info.GPSLon, 1e-4)
}

func TestReadExifSouthWestIsNegative(t *testing.T) {
	data := testutil.JPEGWithExif(t, 16, 16, testutil.ExifFixture{
		DateTime: "2023:12:24 18:00:00",
		Lat:      -33.8568,
		Lon:      -70.6483,
		WithGPS:  true,
	})

	info := NewMetadataReader(logger.NewDiscard()).Read(data, "santiago.jpg")

	assert.Equal(t, "20231224_1800", info.ShootTime, "falls back to DateTime")
	assert.Equal(t, SeasonWinter, info.Season())
	require.True(t, info.HasGPS())
	assert.InDelta(t, -33.8568, *info.GPSLat, 1e-4)
	assert.InDelta(t, -70.6483, *info.GPSLon, 1e-4)
}

func TestReadDegradesToEmpty(t *testing.T) {
	r := NewMetadataReader(logger.NewDiscard())

	assert.Equal(t, ExifInfo{}, r.Read(testutil.JPEG(t, 8, 8), "plain.jpg"))
	assert.Equal(t, ExifInfo{}, r.Read([]byte("garbage"), "garbage.jpg"))
	assert.Equal(t, ExifInfo{}, r.Read(nil, "empty.png"))
	assert.Equal(t, ExifInfo{}, r.Read(testutil.RAWContainer(), "nothing.cr2"))
}

func TestReadRAWIgnoresContainerExif(t *testing.T) {
	fx := testutil.ExifFixture{DateTimeOriginal: "2024:07:15 08:30:00", WithGPS: true, Lat: 39.9, Lon: 116.4}
	r := NewMetadataReader(logger.NewDiscard())

	// the same TIFF is readable when it is not treated as RAW
	plain := r.Read(testutil.TIFFWithExif(fx), "scan.tif")
	require.Equal(t, "20240715_0830", plain.ShootTime)
	require.True(t, plain.HasGPS())

	assert.Equal(t, ExifInfo{}, r.Read(testutil.TIFFWithExif(fx), "DSC_0001.nef"))

	// a preview without EXIF does not fall back to the container either
	preview := testutil.NoisyJPEG(t, 200, 200, 7)
	require.Greater(t, len(preview), MinPreviewSize)
	raw := append(testutil.TIFFWithExif(fx), testutil.RAWContainer(preview)...)
	assert.Equal(t, ExifInfo{}, r.Read(raw, "DSC_0002.nef"))
}

func TestReadRAWUsesPreview(t *testing.T) {
	preview := testutil.JPEGWithExif(t, 320, 320, testutil.ExifFixture{DateTimeOriginal: "2022:04:02 06:15:00"})
	preview = append(preview[:len(preview)-2], append(bytes.Repeat([]byte{0x00}, MinPreviewSize), 0xFF, 0xD9)...)

	info := NewMetadataReader(logger.NewDiscard()).Read(testutil.RAWContainer(preview), "IMG.CR2")
	assert.Equal(t, "20220402_0615", info.ShootTime)
	assert.Equal(t, SeasonSpring, info.Season())
	assert.False(t, info.HasGPS())
}
