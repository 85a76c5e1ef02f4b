package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/extract"
	"github.com/custodia-labs/diligence/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

const (
	dbFile = "diligence.db"

	// jsonNull is how encoding/json writes a nil map or pointer.
	jsonNull = "null"

	// WAL lets the index and transcript write while searches read.
	dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
)

// Store owns one database file shared by the keyword index and the
// transcript store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/diligence.db, creating the directory and schema
// as needed. An empty dataDir means ~/.diligence/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".diligence", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	version, err := migrations.Apply(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	logger.Debug("sqlite: %s at schema version %d", path, version)

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// DocumentIndex returns an FTS5 keyword index over this database. Closing
// it leaves the Store open.
func (s *Store) DocumentIndex(extractor *extract.Extractor) driven.DocumentIndex {
	return &documentIndex{store: s, extractor: extractor}
}

// TranscriptStore returns a transcript store over this database.
func (s *Store) TranscriptStore() driven.TranscriptStore {
	return &transcriptStore{store: s}
}
