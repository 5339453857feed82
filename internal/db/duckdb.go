// Package db owns the DuckDB connection that backs contribution
// storage.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Get returns the singleton DuckDB connection, creating the database
// file under DataDir/duckdb on first use.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		if cfg.DBName == "" {
			cfg.DBName = "infovelo"
		}
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			initErr = fmt.Errorf("create duckdb directory: %w", err)
			return
		}

		dbPath := filepath.Join(duckdbDir, cfg.DBName+".duckdb")
		instance, initErr = sql.Open("duckdb", dbPath)
		if initErr != nil {
			return
		}

		// The spatial extension backs geometry queries on
		// contributions. It may already be installed; a failed INSTALL
		// is not fatal.
		instance.Exec("INSTALL spatial; LOAD spatial;")
	})
	return instance, initErr
}

// Close closes the database connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
