// Package leaderboard ranks users by the records they have collected.
package leaderboard

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
	"github.com/birdeye-app/birdeye/internal/records"
)

const (
	componentName = "leaderboard"
	boardKey      = "board"

	// DefaultFetchLimit caps the records pulled per recompute.
	DefaultFetchLimit = 1000
	// DefaultCacheTTL is how long a computed board is served.
	DefaultCacheTTL = 30 * time.Second
)

// Entry is one user's standing.
type Entry struct {
	Nickname     string  `json:"nickname"`
	SpeciesCount int     `json:"species_count"`
	TotalCount   int     `json:"total_count"`
	AvgScore     float64 `json:"avg_score"`
	BestScore    int     `json:"best_score"`
}

// Aggregate groups records by nickname and ranks the users by distinct
// species, then record count, then mean score, all descending. Remaining
// ties sort by nickname. Records without a nickname are ignored and unknown
// species do not count as species.
func Aggregate(recs []records.Record) []Entry {
	type acc struct {
		species map[string]struct{}
		total   int
		sum     int
		best    int
	}
	users := make(map[string]*acc)
	for _, r := range recs {
		if r.UserNickname == "" {
			continue
		}
		a, ok := users[r.UserNickname]
		if !ok {
			a = &acc{species: make(map[string]struct{}), best: r.Score}
			users[r.UserNickname] = a
		}
		if !identify.IsUnknownSpecies(r.ChineseName) {
			a.species[r.ChineseName] = struct{}{}
		}
		a.total++
		a.sum += r.Score
		a.best = max(a.best, r.Score)
	}

	board := make([]Entry, 0, len(users))
	for nick, a := range users {
		board = append(board, Entry{
			Nickname:     nick,
			SpeciesCount: len(a.species),
			TotalCount:   a.total,
			AvgScore:     float64(a.sum) / float64(a.total),
			BestScore:    a.best,
		})
	}
	slices.SortFunc(board, func(x, y Entry) int {
		return cmp.Or(
			cmp.Compare(y.SpeciesCount, x.SpeciesCount),
			cmp.Compare(y.TotalCount, x.TotalCount),
			cmp.Compare(y.AvgScore, x.AvgScore),
			cmp.Compare(x.Nickname, y.Nickname),
		)
	})
	return board
}

// Board is a computed leaderboard.
type Board struct {
	Entries    []Entry   `json:"entries"`
	ComputedAt time.Time `json:"computed_at"`
	Records    int       `json:"records"` // records aggregated
}

// Config tunes a Service.
type Config struct {
	FetchLimit int
	CacheTTL   time.Duration
}

// Service serves the leaderboard, recomputing it at most once per TTL.
// Readers may see a board up to TTL old.
type Service struct {
	store      records.Store
	fetchLimit int
	cache      *cache.Cache
	group      singleflight.Group
	log        logger.Logger
	metrics    *metrics.LeaderboardMetrics
	now        func() time.Time
}

// NewService creates a Service reading from store.
func NewService(store records.Store, cfg Config, log logger.Logger, m *metrics.LeaderboardMetrics) *Service {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		store:      store,
		fetchLimit: cfg.FetchLimit,
		cache:      cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		log:        log,
		metrics:    m,
		now:        time.Now,
	}
}

// Board returns the cached board or recomputes it from the newest
// FetchLimit records.
func (s *Service) Board(ctx context.Context) (Board, error) {
	if cached, found := s.cache.Get(boardKey); found {
		b := cached.(Board)
		s.metrics.RecordServe(true, s.now().Sub(b.ComputedAt).Seconds())
		return b, nil
	}

	v, err, _ := s.group.Do(boardKey, func() (any, error) {
		return s.recompute(ctx)
	})
	if err != nil {
		return Board{}, err
	}
	return v.(Board), nil
}

// Invalidate drops the cached board, e.g. after a record was written.
func (s *Service) Invalidate() {
	s.cache.Delete(boardKey)
}

func (s *Service) recompute(ctx context.Context) (Board, error) {
	start := s.now()
	recs, err := s.store.List(ctx, records.Query{
		Order:   records.NewestFirst,
		Limit:   s.fetchLimit,
		Columns: []string{records.ColumnNickname, records.ColumnChineseName, records.ColumnScore, records.ColumnCreatedAt},
	})
	if err != nil {
		return Board{}, errors.New(err).
			Component(componentName).
			Context("operation", "fetch_records").
			Context("limit", s.fetchLimit).
			Build()
	}

	b := Board{Entries: Aggregate(recs), ComputedAt: start, Records: len(recs)}
	s.cache.Set(boardKey, b, cache.DefaultExpiration)
	s.metrics.RecordServe(false, 0)
	s.log.WithContext(ctx).Debug("leaderboard recomputed",
		logger.Int("records", len(recs)),
		logger.Int("users", len(b.Entries)))
	return b, nil
}
