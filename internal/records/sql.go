package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// MySQLConfig holds connection details for the mysql backend.
type MySQLConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

func (c MySQLConfig) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// SQLStore keeps records in a local SQL database.
type SQLStore struct {
	db      *gorm.DB
	table   string
	timeout time.Duration
	log     logger.Logger
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path, table string, timeout time.Duration, log logger.Logger) (*SQLStore, error) {
	return openSQL(sqlite.Open(path), "sqlite", table, timeout, log)
}

// OpenMySQL connects to a MySQL database.
func OpenMySQL(cfg MySQLConfig, table string, timeout time.Duration, log logger.Logger) (*SQLStore, error) {
	return openSQL(mysql.Open(cfg.dsn()), "mysql", table, timeout, log)
}

func openSQL(dialector gorm.Dialector, backend, table string, timeout time.Duration, log logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log, slowQueryThreshold),
	})
	if err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryDatabase).
			Context("backend", backend).
			Context("operation", "open").
			Build()
	}
	return NewSQLStore(db, table, timeout, log)
}

// NewSQLStore migrates the record table on db and wraps it.
func NewSQLStore(db *gorm.DB, table string, timeout time.Duration, log logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	if table == "" {
		table = DefaultTable
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := db.Table(table).AutoMigrate(&Record{}); err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryDatabase).
			Context("operation", "migrate").
			Context("table", table).
			Build()
	}
	return &SQLStore{db: db, table: table, timeout: timeout, log: log}, nil
}

func (s *SQLStore) tx(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx).Table(s.table), cancel
}

// Create inserts r, assigning a uuid and creation time.
func (s *SQLStore) Create(ctx context.Context, r Record) (Record, error) {
	tx, cancel := s.tx(ctx)
	defer cancel()

	r.ID = ID(uuid.NewString())
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if err := tx.Create(&r).Error; err != nil {
		return Record{}, dbError(err, "create")
	}
	return r, nil
}

// List fetches records matching q.
func (s *SQLStore) List(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tx, cancel := s.tx(ctx)
	defer cancel()

	if q.Filter.Column != "" {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: q.Filter.Column}, Value: q.Filter.Value})
	}
	if q.Order.Column != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Order.Column}, Desc: q.Order.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}

	var out []Record
	if err := tx.Find(&out).Error; err != nil {
		return nil, dbError(err, "list")
	}
	return out, nil
}

// Delete removes the record with id.
func (s *SQLStore) Delete(ctx context.Context, id ID) error {
	tx, cancel := s.tx(ctx)
	defer cancel()

	res := tx.Where(clause.Eq{Column: clause.Column{Name: ColumnID}, Value: string(id)}).Delete(&Record{})
	if res.Error != nil {
		return dbError(res.Error, "delete")
	}
	if res.RowsAffected == 0 {
		return errors.Newf("record %s not found", id).
			Component(componentName).
			Category(errors.CategoryNotFound).
			Context("id", string(id)).
			Build()
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	return sqlDB.Close()
}

func dbError(err error, op string) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Build()
}
