package session

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/geocode"
	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/imaging"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
	"github.com/birdeye-app/birdeye/internal/photo"
)

const (
	componentName = "session"

	// DefaultMaxPhotos caps a batch; extra inputs are dropped.
	DefaultMaxPhotos = 10
)

// Stages named in warnings.
const (
	StagePreview  = "preview"
	StageIdentify = "identify"
	StageRecords  = "records"
)

// Warning is a non-fatal problem attached to one photo of a batch.
type Warning struct {
	Filename string
	Stage    string
	Err      error
}

func (w Warning) Error() string {
	return w.Filename + ": " + w.Stage + ": " + w.Err.Error()
}

func (w Warning) Unwrap() error { return w.Err }

// Item is one photo of a processed batch.
type Item struct {
	Entry
	Cached   bool
	Warnings []Warning
}

// BatchResult lists the processed photos in input order.
type BatchResult struct {
	Items    []Item
	Dropped  int // inputs beyond the batch cap
	Warnings []Warning
}

// Results returns the identification results in input order.
func (b *BatchResult) Results() []identify.Result {
	out := make([]identify.Result, len(b.Items))
	for i, it := range b.Items {
		out[i] = it.Result
	}
	return out
}

// Entries returns the cache entries in input order.
func (b *BatchResult) Entries() []Entry {
	out := make([]Entry, len(b.Items))
	for i, it := range b.Items {
		out[i] = it.Entry
	}
	return out
}

// Deps are the collaborators of a Pipeline. Orchestrator is required.
type Deps struct {
	Metadata     *photo.MetadataReader
	Geocoder     geocode.Geocoder // nil disables geocoding
	Transcoder   *imaging.Transcoder
	Orchestrator *identify.Orchestrator
	Logger       logger.Logger
	Metrics      *metrics.PipelineMetrics
}

// Config bounds batch processing.
type Config struct {
	MaxPhotos int
	Workers   int // photos processed concurrently, 1 keeps input order sequential
}

// Pipeline runs photos from bytes to identification result.
type Pipeline struct {
	deps      Deps
	maxPhotos int
	workers   int
	log       logger.Logger
}

// NewPipeline validates deps and creates a Pipeline. A missing orchestrator
// is a configuration error raised before any photo is read.
func NewPipeline(deps Deps, cfg Config) (*Pipeline, error) {
	if deps.Orchestrator == nil {
		return nil, errors.Newf("pipeline requires an identification orchestrator").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Build()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Global().Module(componentName)
	}
	if deps.Metadata == nil {
		deps.Metadata = photo.NewMetadataReader(deps.Logger.Module("photo"))
	}
	if deps.Transcoder == nil {
		deps.Transcoder = imaging.NewTranscoder(0, 0, deps.Logger.Module("imaging"))
	}
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = DefaultMaxPhotos
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Pipeline{deps: deps, maxPhotos: cfg.MaxPhotos, workers: cfg.Workers, log: deps.Logger}, nil
}

// MaxPhotos returns the batch cap.
func (p *Pipeline) MaxPhotos() int {
	return p.maxPhotos
}

// Run processes up to MaxPhotos inputs through cache. Inputs beyond the cap
// are dropped, not rejected. A failure in one photo never affects another;
// the only error returned is the context ending before all photos ran.
func (p *Pipeline) Run(ctx context.Context, cache *Cache, inputs []photo.Input) (*BatchResult, error) {
	batch := &BatchResult{}
	if len(inputs) > p.maxPhotos {
		batch.Dropped = len(inputs) - p.maxPhotos
		inputs = inputs[:p.maxPhotos]
		p.deps.Metrics.AddDropped(batch.Dropped)
		p.log.WithContext(ctx).Warn("batch exceeds cap, extra photos dropped",
			logger.Int("cap", p.maxPhotos),
			logger.Int("dropped", batch.Dropped))
	}

	items := make([]Item, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var warnings []Warning
			entry, hit, err := cache.GetOrCompute(gctx, in.Fingerprint(), func(ctx context.Context) (Entry, error) {
				e, w := p.Process(ctx, in)
				warnings = w
				return e, nil
			})
			if err != nil {
				return err
			}
			items[i] = Item{Entry: entry, Cached: hit, Warnings: warnings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryCancellation).
			Context("photos", len(inputs)).
			Build()
	}

	batch.Items = items
	for _, it := range items {
		batch.Warnings = append(batch.Warnings, it.Warnings...)
	}
	return batch, nil
}

// Process runs one photo through preview extraction, metadata, geocoding,
// transcoding and the two-phase identification. It always yields an entry;
// degraded steps are reported as warnings.
func (p *Pipeline) Process(ctx context.Context, in photo.Input) (Entry, []Warning) {
	start := time.Now()
	log := p.log.WithContext(ctx).With(logger.String("filename", in.Filename))
	var warnings []Warning

	image, err := photo.ExtractPreview(in.Data, in.Filename)
	if err != nil {
		// the raw container is sent as is and the model decides
		log.Warn("no RAW preview found", logger.Error(err))
		warnings = append(warnings, Warning{Filename: in.Filename, Stage: StagePreview, Err: err})
		image = in.Data
	}

	info := p.deps.Metadata.Read(in.Data, in.Filename)
	if info.HasGPS() && p.deps.Geocoder != nil {
		info = info.WithLocation(p.deps.Geocoder.Reverse(ctx, *info.GPSLat, *info.GPSLon))
	}

	payload := p.deps.Transcoder.Transcode(image)
	id := p.deps.Orchestrator.Identify(ctx, payload, info)
	for _, w := range id.Warnings {
		warnings = append(warnings, Warning{Filename: in.Filename, Stage: StageIdentify, Err: w})
	}

	result := id.Result
	result.ShootDate = info.ShootDate()
	result.OriginalName = in.Filename
	result.Location = info.Location

	elapsed := time.Since(start)
	p.deps.Metrics.ObservePhoto(elapsed.Seconds())
	log.Info("photo identified",
		logger.String("species", result.ChineseName),
		logger.Int("score", result.Score),
		logger.String("state", id.State.String()),
		logger.Bool("transcoded", payload.Transcoded),
		logger.Duration("elapsed", elapsed))

	return Entry{
		Key:    in.Fingerprint(),
		Result: result,
		Image:  in.Data,
		Suffix: in.Suffix(),
	}, warnings
}
