// Package catalog is the durable record of series, their progress, the
// work queue, and the missing-German list.
//
// Every exported method opens and closes its own short transaction —
// there are no long-lived handles besides the pooled *sql.DB itself —
// and on failure logs a "[DB-ERROR]" line and returns a failure
// sentinel rather than propagating the driver error, so callers in the
// mode engine can skip to the next item instead of crashing.
package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a single-writer sqlite connection, grounded on
// Wraient-pair/pkg/database.DB's SetMaxOpenConns(1) rationale: sqlite
// only supports one writer at a time, and the mode engine is the only
// long-running writer in this process besides the occasional HTTP
// mutation.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if necessary) the sqlite database at dbPath,
// runs pending migrations, and reindexes series ids to be contiguous
// from 1 (architectural note: other in-memory state
// addresses series by id, so ids must never have holes).
func Open(dbPath string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}

	s := &Store{db: db, log: log}

	if err := s.reindexSeriesIDs(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: reindex: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) logErr(op string, err error) {
	s.log.Error("[DB-ERROR]", "op", op, "err", err)
}

// reindexSeriesIDs renumbers series.id to be contiguous starting at 1,
// ordered by the existing id, remapping queue.series_id in the same
// transaction. The whole operation commits atomically; a crash
// mid-reindex leaves sqlite's own transaction rollback as the recovery
// mechanism, so there is never a partially-reindexed state visible
// from outside this one transaction.
func (s *Store) reindexSeriesIDs() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The id rewrites below briefly leave queue rows pointing at a series
	// id that no longer exists; defer the foreign-key check to commit,
	// by which point both tables agree again.
	if _, err := tx.Exec(`PRAGMA defer_foreign_keys = ON`); err != nil {
		return err
	}

	rows, err := tx.Query(`SELECT id FROM series ORDER BY id ASC`)
	if err != nil {
		return err
	}
	var oldIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		oldIDs = append(oldIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	needsReindex := false
	for i, id := range oldIDs {
		if id != int64(i+1) {
			needsReindex = true
			break
		}
	}
	if !needsReindex {
		return nil
	}

	// Move every row to a negative, collision-free id first so the
	// second pass can assign final ids without hitting the UNIQUE
	// constraint on a value another row still occupies.
	for i, oldID := range oldIDs {
		tmpID := -(int64(i) + 1)
		if _, err := tx.Exec(`UPDATE series SET id = ? WHERE id = ?`, tmpID, oldID); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE queue SET series_id = ? WHERE series_id = ?`, tmpID, oldID); err != nil {
			return err
		}
	}
	for i := range oldIDs {
		tmpID := -(int64(i) + 1)
		newID := int64(i + 1)
		if _, err := tx.Exec(`UPDATE series SET id = ? WHERE id = ?`, newID, tmpID); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE queue SET series_id = ? WHERE series_id = ?`, newID, tmpID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
