package session

import (
	"context"

	"github.com/birdeye-app/birdeye/internal/archive"
	"github.com/birdeye-app/birdeye/internal/imaging"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/photo"
	"github.com/birdeye-app/birdeye/internal/records"
)

// ArchiveItems returns the batch in the shape the archive builder takes.
func (b *BatchResult) ArchiveItems() []archive.Item {
	out := make([]archive.Item, len(b.Items))
	for i, it := range b.Items {
		out[i] = archive.Item{Result: it.Result, Image: it.Image, Suffix: it.Suffix}
	}
	return out
}

// Recorder saves batch results to a record store under a nickname.
type Recorder struct {
	store     records.Store
	thumbSize int
	log       logger.Logger
}

// NewRecorder creates a Recorder. thumbSize <= 0 uses the imaging default.
func NewRecorder(store records.Store, thumbSize int, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	if thumbSize <= 0 {
		thumbSize = imaging.DefaultThumbnailSize
	}
	return &Recorder{store: store, thumbSize: thumbSize, log: log}
}

// Save creates one record per item. Failures never abort the batch; each
// is returned as a warning and that record is treated as not saved.
func (r *Recorder) Save(ctx context.Context, nickname string, items []Item) (int, []Warning) {
	log := r.log.WithContext(ctx)
	saved := 0
	var warnings []Warning
	for _, it := range items {
		rec := records.FromResult(it.Result, nickname, r.thumbnail(it.Entry))
		if _, err := r.store.Create(ctx, rec); err != nil {
			log.Warn("record not saved",
				logger.String("filename", it.Key.Name),
				logger.Error(err))
			warnings = append(warnings, Warning{Filename: it.Key.Name, Stage: StageRecords, Err: err})
			continue
		}
		saved++
	}
	log.Info("batch saved",
		logger.String("nickname", nickname),
		logger.Int("saved", saved),
		logger.Int("failed", len(warnings)))
	return saved, warnings
}

// thumbnail renders the bird crop, or "" when the photo cannot be decoded.
func (r *Recorder) thumbnail(e Entry) string {
	data, err := photo.ExtractPreview(e.Image, e.Key.Name)
	if err != nil {
		return ""
	}
	thumb, err := imaging.Thumbnail(data, e.Result.BirdBBox, r.thumbSize)
	if err != nil {
		r.log.Debug("thumbnail skipped", logger.String("filename", e.Key.Name), logger.Error(err))
		return ""
	}
	return thumb
}
