package catalog

import (
	"database/sql"
	"errors"

	"github.com/atreides/aniwatch/internal/models"
)

// QueueAdd refuses to enqueue a series that is complete or already
// queued, and assigns position = max(position)+1.
func (s *Store) QueueAdd(seriesID int64) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("QueueAdd", err)
		return false
	}
	defer tx.Rollback()

	var complete int
	if err := tx.QueryRow(`SELECT complete FROM series WHERE id = ?`, seriesID).Scan(&complete); err != nil {
		s.logErr("QueueAdd.lookup", err)
		return false
	}
	if complete == 1 {
		return false
	}

	var existing int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM queue WHERE series_id = ?`, seriesID).Scan(&existing); err != nil {
		s.logErr("QueueAdd.existing", err)
		return false
	}
	if existing > 0 {
		return false
	}

	var maxPos sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(position) FROM queue`).Scan(&maxPos); err != nil {
		s.logErr("QueueAdd.maxPos", err)
		return false
	}
	next := int64(1)
	if maxPos.Valid {
		next = maxPos.Int64 + 1
	}

	if _, err := tx.Exec(`INSERT INTO queue (series_id, position) VALUES (?, ?)`, seriesID, next); err != nil {
		s.logErr("QueueAdd.insert", err)
		return false
	}

	if err := tx.Commit(); err != nil {
		s.logErr("QueueAdd.commit", err)
		return false
	}
	return true
}

// QueueList returns queue rows ordered by position, the sole ordering
// key.
func (s *Store) QueueList() []models.QueueItem {
	rows, err := s.db.Query(
		`SELECT q.id, q.series_id, s.url, q.position, q.added_at
		 FROM queue q JOIN series s ON s.id = q.series_id
		 ORDER BY q.position ASC, q.added_at ASC, q.id ASC`,
	)
	if err != nil {
		s.logErr("QueueList", err)
		return nil
	}
	defer rows.Close()

	var out []models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		if err := rows.Scan(&item.ID, &item.SeriesID, &item.SeriesURL, &item.Position, &item.AddedAt); err != nil {
			s.logErr("QueueList.scan", err)
			continue
		}
		out = append(out, item)
	}
	return out
}

func (s *Store) QueueClear() bool {
	if _, err := s.db.Exec(`DELETE FROM queue`); err != nil {
		s.logErr("QueueClear", err)
		return false
	}
	return true
}

func (s *Store) QueueDelete(queueID int64) bool {
	if _, err := s.db.Exec(`DELETE FROM queue WHERE id = ?`, queueID); err != nil {
		s.logErr("QueueDelete", err)
		return false
	}
	return true
}

func (s *Store) QueueDeleteBySeriesID(seriesID int64) bool {
	if _, err := s.db.Exec(`DELETE FROM queue WHERE series_id = ?`, seriesID); err != nil {
		s.logErr("QueueDeleteBySeriesID", err)
		return false
	}
	return true
}

// QueueReorder assigns positions 1..N in the order given; any queue
// row not mentioned keeps its relative order, appended after N.
func (s *Store) QueueReorder(orderedQueueIDs []int64) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("QueueReorder", err)
		return false
	}
	defer tx.Rollback()

	seen := make(map[int64]bool, len(orderedQueueIDs))
	pos := 1
	for _, qid := range orderedQueueIDs {
		if seen[qid] {
			continue
		}
		seen[qid] = true
		if _, err := tx.Exec(`UPDATE queue SET position = ? WHERE id = ?`, pos, qid); err != nil {
			s.logErr("QueueReorder.update", err)
			return false
		}
		pos++
	}

	rows, err := tx.Query(`SELECT id FROM queue ORDER BY position ASC, added_at ASC, id ASC`)
	if err != nil {
		s.logErr("QueueReorder.rest", err)
		return false
	}
	var remaining []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			s.logErr("QueueReorder.restScan", err)
			return false
		}
		if !seen[id] {
			remaining = append(remaining, id)
		}
	}
	rows.Close()

	for _, id := range remaining {
		if _, err := tx.Exec(`UPDATE queue SET position = ? WHERE id = ?`, pos, id); err != nil {
			s.logErr("QueueReorder.updateRest", err)
			return false
		}
		pos++
	}

	if err := tx.Commit(); err != nil {
		s.logErr("QueueReorder.commit", err)
		return false
	}
	return true
}

// QueuePruneCompleted removes rows whose series is complete or whose
// url no longer exists.
func (s *Store) QueuePruneCompleted() bool {
	_, err := s.db.Exec(
		`DELETE FROM queue WHERE series_id NOT IN (SELECT id FROM series WHERE complete = 0)`,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logErr("QueuePruneCompleted", err)
		return false
	}
	return true
}
