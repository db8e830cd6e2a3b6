package photo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

// shootTimeLen is the width of the normalized capture time, YYYYMMDD_HHMM.
const shootTimeLen = 13

// timeTags are tried in order; the first populated one wins.
var timeTags = []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime}

// ExifInfo is the metadata the pipeline uses from a photo.
type ExifInfo struct {
	ShootTime string   `json:"shoot_time"`         // YYYYMMDD_HHMM, may be shorter or empty
	GPSLat    *float64 `json:"gps_lat,omitempty"`  // signed decimal degrees, south negative
	GPSLon    *float64 `json:"gps_lon,omitempty"`  // signed decimal degrees, west negative
	Location  string   `json:"geocoded_location,omitempty"`
}

// HasGPS reports whether both coordinates are present.
func (e ExifInfo) HasGPS() bool {
	return e.GPSLat != nil && e.GPSLon != nil
}

// ShootDate returns the YYYYMMDD part of the capture time, or "".
func (e ExifInfo) ShootDate() string {
	if len(e.ShootTime) < 8 {
		return e.ShootTime
	}
	return e.ShootTime[:8]
}

// Season derives the season from the capture month.
func (e ExifInfo) Season() Season {
	month, ok := monthFromShootTime(e.ShootTime)
	if !ok {
		return SeasonUnknown
	}
	return SeasonForMonth(month)
}

// WithLocation returns a copy carrying a geocoded place label.
func (e ExifInfo) WithLocation(location string) ExifInfo {
	e.Location = location
	return e
}

// MetadataReader extracts ExifInfo from photo bytes. It never fails: any
// problem yields empty metadata and a debug log line.
type MetadataReader struct {
	log logger.Logger
}

// NewMetadataReader creates a reader; a nil logger uses the global one.
func NewMetadataReader(log logger.Logger) *MetadataReader {
	if log == nil {
		log = logger.Global().Module("photo")
	}
	return &MetadataReader{log: log}
}

// Read returns the capture time and GPS position found in data. RAW inputs
// are read through their embedded preview only; a RAW without a usable
// preview has no metadata, even when its container carries EXIF.
func (r *MetadataReader) Read(data []byte, filename string) ExifInfo {
	src := data
	if IsRAW(filename) {
		preview, ok := LargestEmbeddedJPEG(data)
		if !ok {
			r.log.Debug("RAW without preview, metadata skipped",
				logger.String("filename", filename))
			return ExifInfo{}
		}
		src = preview
	}

	info, err := decodeExif(src)
	if err != nil {
		r.log.Debug("no usable EXIF metadata",
			logger.String("filename", filename),
			logger.Bool("raw", IsRAW(filename)),
			logger.Error(err))
		return ExifInfo{}
	}
	return info
}

// decodeExif parses one EXIF block. goexif can panic on hostile input, so
// the panic is turned into an error.
func decodeExif(data []byte) (info ExifInfo, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf("exif decoder panic: %v", rec).
				Component("photo").
				Category(errors.CategoryFileParsing).
				Build()
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && x == nil {
		return ExifInfo{}, errors.New(fmt.Errorf("decode exif: %w", err)).
			Component("photo").
			Category(errors.CategoryFileParsing).
			Build()
	}

	info.ShootTime = readShootTime(x)
	if lat, lon, gpsErr := x.LatLong(); gpsErr == nil && validCoordinate(lat, lon) {
		info.GPSLat = &lat
		info.GPSLon = &lon
	}
	return info, nil
}

func readShootTime(x *exif.Exif) string {
	for _, name := range timeTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		raw = strings.TrimRight(raw, "\x00 ")
		if raw == "" {
			continue
		}
		return NormalizeShootTime(raw)
	}
	return ""
}

// NormalizeShootTime turns "2024:07:15 08:30:12" into "20240715_0830".
func NormalizeShootTime(raw string) string {
	cleaned := strings.ReplaceAll(raw, ":", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	if len(cleaned) > shootTimeLen {
		cleaned = cleaned[:shootTimeLen]
	}
	return cleaned
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
