// Package archive packs identified photos into a zip organised by
// taxonomic order and family, with a JSON manifest of all results.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const componentName = "archive"

// DownloadName is the file name offered for a batch archive.
const DownloadName = "BirdEye_影禽_鸟类照片整理.zip"

// ManifestName is the archive entry holding every result as JSON.
const ManifestName = "bird_identification_results.json"

// unknownName replaces names that sanitize to nothing.
const unknownName = "unknown"

// entryTime is stamped on every entry so equal input yields equal bytes.
var entryTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var unsafeChars = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFilename replaces characters that are illegal in file names and
// trims leading and trailing dots and spaces. It never returns "".
// SanitizeFilename(SanitizeFilename(x)) == SanitizeFilename(x).
func SanitizeFilename(name string) string {
	s := strings.Trim(unsafeChars.Replace(name), ". ")
	if s == "" {
		return unknownName
	}
	return s
}

// BuildFilename names a photo after its result:
// name[_location][_date]_{score}分, without extension.
func BuildFilename(r identify.Result) string {
	name := r.ChineseName
	if name == "" {
		name = identify.UnknownChineseName
	}
	parts := []string{SanitizeFilename(name)}
	if r.Location != "" {
		parts = append(parts, SanitizeFilename(r.Location))
	}
	if r.ShootDate != "" {
		parts = append(parts, SanitizeFilename(r.ShootDate))
	}
	parts = append(parts, strconv.Itoa(r.Score)+"分")
	return strings.Join(parts, "_")
}

// Folder returns the order/family directory of a result.
func Folder(r identify.Result) string {
	order := SanitizeFilename(fmt.Sprintf("%s(%s)",
		orDefault(r.OrderChinese, identify.UnknownOrder), orDefault(r.OrderEnglish, identify.UnknownTaxon)))
	family := SanitizeFilename(fmt.Sprintf("%s(%s)",
		orDefault(r.FamilyChinese, identify.UnknownFamily), orDefault(r.FamilyEnglish, identify.UnknownTaxon)))
	return order + "/" + family
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Item is one photo to archive.
type Item struct {
	Result identify.Result
	Image  []byte
	Suffix string // extension including the dot, may be empty
}

// Paths returns the archive path of every item in input order. The first
// item to claim a path keeps it; later ones get "_1", "_2" and so on,
// counted per path across the whole batch. No two returned paths are equal.
func Paths(items []Item) []string {
	counters := make(map[string]int, len(items))
	used := make(map[string]bool, len(items)+1)
	used[ManifestName] = true

	out := make([]string, len(items))
	for i, it := range items {
		dir := Folder(it.Result)
		base := BuildFilename(it.Result)
		key := path.Join(dir, base+it.Suffix)
		p := key
		for used[p] {
			counters[key]++
			p = path.Join(dir, base+"_"+strconv.Itoa(counters[key])+it.Suffix)
		}
		used[p] = true
		out[i] = p
	}
	return out
}

// Builder writes archives.
type Builder struct {
	level int
	log   logger.Logger
}

// NewBuilder creates a Builder. A nil logger falls back to the global one.
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	return &Builder{level: flate.BestSpeed, log: log}
}

// Build returns the archive bytes for items.
func (b *Builder) Build(items []Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Write(&buf, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the archive for items to w: one entry per item at its
// Paths location and the manifest listing every result in input order.
func (b *Builder) Write(w io.Writer, items []Item) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, b.level)
	})

	paths := Paths(items)
	for i, it := range items {
		if err := writeEntry(zw, paths[i], it.Image); err != nil {
			return err
		}
	}

	results := make([]identify.Result, len(items))
	for i, it := range items {
		results[i] = it.Result
	}
	manifest, err := encodeManifest(results)
	if err != nil {
		return err
	}
	if err := writeEntry(zw, ManifestName, manifest); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Context("operation", "close_archive").
			Build()
	}
	b.log.Debug("archive written", logger.Int("photos", len(items)))
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryTime,
	})
	if err == nil {
		_, err = f.Write(data)
	}
	if err != nil {
		return errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Context("operation", "write_entry").
			Context("entry", name).
			Build()
	}
	return nil
}

func encodeManifest(results []identify.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileParsing).
			Context("operation", "encode_manifest").
			Build()
	}
	return buf.Bytes(), nil
}
