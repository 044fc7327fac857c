// Package signals reads classification rows written by the worker and
// evaluates them into trade signals.
package signals

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/types"
)

const DefaultTable = "lorentzian_results"

var errNoStore = errors.New("result store does not exist yet")

// Reader opens the worker's SQLite file lazily and read-only, so a missing
// store reads as "no data yet" instead of creating an empty database.
type Reader struct {
	path  string
	table string

	mu sync.Mutex
	db *gorm.DB
}

func NewReader(path, table string) *Reader {
	if table == "" {
		table = DefaultTable
	}
	return &Reader{path: path, table: table}
}

func (r *Reader) open() (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db, nil
	}
	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errNoStore
		}
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", r.path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// Latest returns the newest row by timestamp. Any failure is logged and
// reported as no data.
func (r *Reader) Latest(ctx context.Context) (types.ClassificationRow, bool) {
	rows, err := r.Recent(ctx, 1)
	if err != nil {
		if errors.Is(err, errNoStore) {
			logger.Debug(ctx, "Result store not created yet", "path", r.path)
		} else {
			logger.Warn(ctx, "Failed to read latest classification row", "path", r.path, "table", r.table, "error", err)
		}
		return types.ClassificationRow{}, false
	}
	if len(rows) == 0 {
		return types.ClassificationRow{}, false
	}
	return rows[0], true
}

// Recent returns up to n rows, newest first.
func (r *Reader) Recent(ctx context.Context, n int) ([]types.ClassificationRow, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 1
	}
	var rows []types.ClassificationRow
	err = db.WithContext(ctx).
		Table(r.table).
		Order("timestamp DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	r.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
