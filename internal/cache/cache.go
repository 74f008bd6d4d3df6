// Package cache persists compiled bytecode.Program values across runs,
// keyed by a digest of the source that produced them. It is a pure
// performance layer over engine.Engine.Compile (spec.md §6's "on-the-wire
// bytecode" format made concrete, see SPEC_FULL.md §2.1): a cache miss
// behaves identically to having no cache at all.
//
// Grounded on termfx-morfx/db's gorm.Open + AutoMigrate connection pattern,
// swapping gorm.io/driver/sqlite (cgo, via mattn/go-sqlite3) for the
// pure-Go github.com/glebarez/sqlite dialector so the engine stays
// cgo-free, and on termfx-morfx/models's use of gorm.io/datatypes.JSON for
// structured columns.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecmago/engine/internal/bytecode"
)

// Record is the gorm model backing one cached compilation. Program is the
// full bytecode.Program.Encode() document — the per-function constant
// pools, instruction streams, line tables, and the function/class tables —
// held in a datatypes.JSON column so the stored form stays queryable as
// JSON rather than an opaque blob.
type Record struct {
	Digest    string         `gorm:"primaryKey;type:varchar(64)"`
	Strict    bool           `gorm:"not null"`
	Program   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
}

func (Record) TableName() string { return "bytecode_cache" }

// Cache wraps a gorm.DB opened against a local SQLite file.
type Cache struct {
	db *gorm.DB
}

// Open connects to (creating if absent) the SQLite database at path and
// migrates the cache table. An empty path is rejected — callers that want
// no caching should simply not construct a Cache (engine.Engine treats a
// nil *Cache as "caching disabled").
func Open(path string, debug bool) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("cache: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("cache: connect: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return &Cache{db: db}, nil
}

// Digest computes the cache key for a (source, strict) pair, per
// SPEC_FULL.md §2.1: a SHA-256 of the source text plus the strict-mode
// flag, since the same text can compile two different ways.
func Digest(source string, strict bool) string {
	h := sha256.New()
	h.Write([]byte(source))
	if strict {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a previously compiled Program by digest. A missing entry is
// not an error: (nil, false, nil) tells the caller to fall through to the
// parser/compiler pipeline.
func (c *Cache) Get(digest string) (*bytecode.Program, bool, error) {
	var rec Record
	err := c.db.First(&rec, "digest = ?", digest).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: lookup: %w", err)
	}
	prog, err := bytecode.Decode(rec.Program)
	if err != nil {
		return nil, false, fmt.Errorf("cache: decode cached program: %w", err)
	}
	return prog, true, nil
}

// Put stores prog under digest, overwriting any previous entry for the
// same key (a recompile after a cache-format change should just win).
func (c *Cache) Put(digest string, strict bool, prog *bytecode.Program) error {
	data, err := prog.Encode()
	if err != nil {
		return fmt.Errorf("cache: encode program: %w", err)
	}
	rec := Record{Digest: digest, Strict: strict, Program: datatypes.JSON(data), CreatedAt: time.Now()}
	return c.db.Save(&rec).Error
}

// Clear removes every cached entry, used by the `ecmago cache clear` CLI
// subcommand.
func (c *Cache) Clear() error {
	return c.db.Exec("DELETE FROM bytecode_cache").Error
}

// Count reports how many programs are currently cached, used by
// `ecmago cache info`.
func (c *Cache) Count() (int64, error) {
	var n int64
	err := c.db.Model(&Record{}).Count(&n).Error
	return n, err
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
