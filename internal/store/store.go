// Package store is the DuckDB-backed persistence layer (component C6).
// It implements the seams the ingestion, scoring, user-scoring, trend,
// and telemetry components depend on behind their own narrow Store
// interfaces.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

// DB wraps a DuckDB connection, a prepared-statement cache, and
// per-URL write locks used to serialize concurrent item upserts.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger

	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex

	urlLocks sync.Map
}

// Config configures the DuckDB connection.
type Config struct {
	Path    string
	Threads int
}

// Open creates (or opens) the DuckDB database file, tunes the
// connection, and ensures the schema exists.
func Open(cfg Config, logger zerolog.Logger) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(threads)

	db := &DB{
		conn:      conn,
		logger:    logger.With().Str("component", "store").Logger(),
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	if err := db.createIndexes(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return db, nil
}

// Close releases prepared statements and the underlying connection.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) prepared(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// lockURL serializes concurrent upserts against the same item URL,
// mirroring the per-key write locking idiom used for concurrent
// DuckDB UPSERTs elsewhere in the stack.
func (db *DB) lockURL(url string) *sync.Mutex {
	actual, _ := db.urlLocks.LoadOrStore(url, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}
