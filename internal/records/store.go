package records

import (
	"context"
	"strings"
	"time"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
)

const (
	componentName = "records"

	// DefaultTable is the collection records live in.
	DefaultTable = "records"
	// DefaultTimeout bounds every store operation.
	DefaultTimeout = 15 * time.Second
)

// Column names shared by both backends.
const (
	ColumnID           = "id"
	ColumnCreatedAt    = "created_at"
	ColumnNickname     = "user_nickname"
	ColumnChineseName  = "chinese_name"
	ColumnScore        = "score"
	ColumnThumbnail    = "thumbnail_base64"
	ColumnShootDate    = "shoot_date"
	ColumnOriginalName = "original_name"
)

// queryable lists the columns a Query may filter, order or select on.
var queryable = map[string]bool{
	"id": true, "created_at": true, "user_nickname": true,
	"chinese_name": true, "english_name": true,
	"order_chinese": true, "family_chinese": true, "confidence": true,
	"score": true, "score_sharpness": true, "score_composition": true,
	"score_lighting": true, "score_background": true, "score_pose": true,
	"score_artistry": true, "shoot_date": true, "original_name": true,
	"location": true, "thumbnail_base64": true,
}

// Filter matches records whose Column equals Value. A zero Filter matches all.
type Filter struct {
	Column string
	Value  string
}

// Eq returns a Filter on column == value.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a listing.
type Order struct {
	Column string
	Desc   bool
}

// NewestFirst orders by creation time, descending.
var NewestFirst = Order{Column: ColumnCreatedAt, Desc: true}

// Query selects records. Zero Limit means no cap; empty Columns selects all.
type Query struct {
	Filter  Filter
	Order   Order
	Limit   int
	Columns []string
}

// Validate rejects columns outside the record schema.
func (q Query) Validate() error {
	for _, col := range []string{q.Filter.Column, q.Order.Column} {
		if col != "" && !queryable[col] {
			return unknownColumn(col)
		}
	}
	for _, col := range q.Columns {
		if !queryable[col] {
			return unknownColumn(col)
		}
	}
	if q.Limit < 0 {
		return errors.Newf("negative limit %d", q.Limit).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

func unknownColumn(col string) error {
	return errors.Newf("unknown record column %q", col).
		Component(componentName).
		Category(errors.CategoryValidation).
		Context("column", col).
		Build()
}

func (q Query) selectList() string {
	return strings.Join(q.Columns, ",")
}

// Store creates, lists and deletes records. Every operation is a single
// attempt with a bounded timeout; an error means the store did not change.
type Store interface {
	// Create stores r and returns it with server-assigned fields set.
	Create(ctx context.Context, r Record) (Record, error)
	List(ctx context.Context, q Query) ([]Record, error)
	// Delete removes the record with id. A missing record is a not-found error.
	Delete(ctx context.Context, id ID) error
	Close() error
}

// Instrument wraps s so every operation is counted under backend.
func Instrument(s Store, backend string, m *metrics.RecordsMetrics) Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, backend: backend, metrics: m}
}

type instrumented struct {
	Store
	backend string
	metrics *metrics.RecordsMetrics
}

func (i *instrumented) Create(ctx context.Context, r Record) (Record, error) {
	start := time.Now()
	out, err := i.Store.Create(ctx, r)
	i.metrics.RecordOperation(metrics.OpCreate, i.backend, err, time.Since(start).Seconds())
	return out, err
}

func (i *instrumented) List(ctx context.Context, q Query) ([]Record, error) {
	start := time.Now()
	out, err := i.Store.List(ctx, q)
	i.metrics.RecordOperation(metrics.OpList, i.backend, err, time.Since(start).Seconds())
	return out, err
}

func (i *instrumented) Delete(ctx context.Context, id ID) error {
	start := time.Now()
	err := i.Store.Delete(ctx, id)
	i.metrics.RecordOperation(metrics.OpDelete, i.backend, err, time.Since(start).Seconds())
	return err
}
