// Package photo models uploaded photos and reads what the pipeline needs
// from their bytes: the embedded RAW preview, capture time and GPS position.
package photo

import (
	"fmt"
	"path/filepath"
	"strings"
)

// rawExtensions lists camera RAW formats that carry an embedded JPEG preview.
var rawExtensions = map[string]struct{}{
	".arw": {}, // Sony
	".cr2": {}, // Canon
	".cr3": {},
	".nef": {}, // Nikon
	".nrw": {},
	".dng": {}, // Adobe / generic
	".raf": {}, // Fujifilm
	".orf": {}, // Olympus
	".rw2": {}, // Panasonic
	".pef": {}, // Pentax
	".srw": {}, // Samsung
}

// IsRAW reports whether filename has a recognized camera RAW extension.
func IsRAW(filename string) bool {
	_, ok := rawExtensions[Suffix(filename)]
	return ok
}

// Suffix returns the lower-cased extension of filename including the dot.
func Suffix(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Input is one uploaded photo. It is never modified after creation.
type Input struct {
	Data     []byte
	Filename string
	// DeclaredSize is the size reported by the uploader; zero means len(Data).
	DeclaredSize int64
}

// NewInput wraps uploaded bytes.
func NewInput(filename string, data []byte) Input {
	return Input{Data: data, Filename: filename, DeclaredSize: int64(len(data))}
}

// Size returns the declared size, falling back to the byte length.
func (in Input) Size() int64 {
	if in.DeclaredSize > 0 {
		return in.DeclaredSize
	}
	return int64(len(in.Data))
}

// Suffix returns the lower-cased extension of the input's filename.
func (in Input) Suffix() string {
	return Suffix(in.Filename)
}

// Fingerprint identifies a photo within a session by name and byte length.
// It is a cheap, collision-tolerant key, not a content hash.
type Fingerprint struct {
	Name string
	Size int64
}

// Fingerprint returns the cache identity of the input.
func (in Input) Fingerprint() Fingerprint {
	return Fingerprint{Name: in.Filename, Size: in.Size()}
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s_%d", f.Name, f.Size)
}
