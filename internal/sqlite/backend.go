// Package sqlite implements the training record store. JSONL files in the
// data directory are the source of truth; an SQLite database rebuilt on
// every Attach serves queries.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/miles/pkg/types"
)

// dbFileName is the query database inside the data directory.
const dbFileName = "miles.db"

// Backend implements types.Cupboard using SQLite as the query engine and
// JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	log      *zap.Logger
}

var _ types.Cupboard = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for load and repair messages.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns a Table for the specified table name. Each write made
// through it commits on its own; use Transact to group writes.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrCupboardDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCupboardDetached
	}
	return newTable(b, nil, name)
}

// txTables hands out tables bound to one open transaction.
type txTables struct {
	backend *Backend
	tx      *sql.Tx
}

func (t txTables) GetTable(name string) (types.Table, error) {
	return newTable(t.backend, t.tx, name)
}

// Transact runs fn with tables bound to a single transaction. If fn
// returns an error nothing it wrote is kept. After the commit every JSONL
// file is rewritten. Tables handed to fn must not be used after it
// returns, and fn must not call back into the backend.
func (b *Backend) Transact(fn func(tx types.Tables) error) error {
	return b.update(func(tx *sql.Tx) error {
		return fn(txTables{backend: b, tx: tx})
	})
}

// update runs fn in a transaction under the write lock and persists the
// result.
func (b *Backend) update(fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrCupboardDetached
	}
	if err := runInTx(b.db, fn); err != nil {
		return err
	}
	// A failed persist leaves the files behind the database; the next
	// Attach reloads from the files.
	if err := persistAll(b.db, b.dataDir); err != nil {
		return fmt.Errorf("persisting records: %w", err)
	}
	return nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite database from
// the JSONL files and repairs any partially written weeks.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is rebuilt from the JSONL files on every attach.
	dbPath := filepath.Join(dataDir, dbFileName)
	if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale database: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	repaired, err := loadAllJSONL(db, dataDir, b.log)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	if repaired {
		if err := persistAll(db, dataDir); err != nil {
			db.Close()
			return fmt.Errorf("persisting repaired records: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true

	b.log.Debug("record store attached", zap.String("data_dir", dataDir))
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrCupboardDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}

// DataDir returns the directory holding the JSONL files.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
