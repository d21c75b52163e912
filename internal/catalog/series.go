package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/atreides/aniwatch/internal/models"
)

// UpsertSeries implements upsert_series: if url already
// exists and is soft-deleted, it is revived in place (same id); if it
// exists and is active, this is a no-op; otherwise a new row is
// inserted.
func (s *Store) UpsertSeries(url string, site models.Site, title string) (int64, bool) {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("UpsertSeries", err)
		return 0, false
	}
	defer tx.Rollback()

	var id int64
	var deleted int
	err = tx.QueryRow(`SELECT id, deleted FROM series WHERE url = ?`, url).Scan(&id, &deleted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		contentType := models.ContentTypeForSite(site)
		res, err := tx.Exec(
			`INSERT INTO series (url, title, site, content_type, missing_german) VALUES (?, ?, ?, ?, '[]')`,
			url, title, string(site), string(contentType),
		)
		if err != nil {
			s.logErr("UpsertSeries.insert", err)
			return 0, false
		}
		id, err = res.LastInsertId()
		if err != nil {
			s.logErr("UpsertSeries.lastId", err)
			return 0, false
		}
	case err != nil:
		s.logErr("UpsertSeries.select", err)
		return 0, false
	default:
		if deleted == 1 {
			if _, err := tx.Exec(
				`UPDATE series SET deleted = 0, complete = 0, german_complete = 1,
				 missing_german = '[]', last_film = 0, last_season = 0, last_episode = 0,
				 title = CASE WHEN ? != '' THEN ? ELSE title END
				 WHERE id = ?`,
				title, title, id,
			); err != nil {
				s.logErr("UpsertSeries.revive", err)
				return 0, false
			}
		}
		// Active, existing row: no-op.
	}

	if err := tx.Commit(); err != nil {
		s.logErr("UpsertSeries.commit", err)
		return 0, false
	}
	return id, true
}

// SeriesUpdate is a typed partial update for UpdateSeries; nil fields
// are left untouched.
type SeriesUpdate struct {
	Title          *string
	Complete       *bool
	GermanComplete *bool
	MissingGerman  *[]string
	Progress       *models.Progress
}

// UpdateSeries applies a partial update. Setting Complete=true also
// deletes the series' queue entries and prunes completed items.
func (s *Store) UpdateSeries(id int64, u SeriesUpdate) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("UpdateSeries", err)
		return false
	}
	defer tx.Rollback()

	if u.Title != nil {
		if _, err := tx.Exec(`UPDATE series SET title = ? WHERE id = ?`, *u.Title, id); err != nil {
			s.logErr("UpdateSeries.title", err)
			return false
		}
	}
	if u.Complete != nil {
		if _, err := tx.Exec(`UPDATE series SET complete = ? WHERE id = ?`, boolToInt(*u.Complete), id); err != nil {
			s.logErr("UpdateSeries.complete", err)
			return false
		}
	}
	if u.GermanComplete != nil {
		if _, err := tx.Exec(`UPDATE series SET german_complete = ? WHERE id = ?`, boolToInt(*u.GermanComplete), id); err != nil {
			s.logErr("UpdateSeries.germanComplete", err)
			return false
		}
	}
	if u.MissingGerman != nil {
		encoded, err := json.Marshal(*u.MissingGerman)
		if err != nil {
			s.logErr("UpdateSeries.missingGerman.marshal", err)
			return false
		}
		if _, err := tx.Exec(`UPDATE series SET missing_german = ? WHERE id = ?`, string(encoded), id); err != nil {
			s.logErr("UpdateSeries.missingGerman", err)
			return false
		}
	}
	if u.Progress != nil {
		if _, err := tx.Exec(
			`UPDATE series SET last_film = ?, last_season = ?, last_episode = ? WHERE id = ?`,
			u.Progress.LastFilm, u.Progress.LastSeason, u.Progress.LastEpisode, id,
		); err != nil {
			s.logErr("UpdateSeries.progress", err)
			return false
		}
	}

	if err := tx.Commit(); err != nil {
		s.logErr("UpdateSeries.commit", err)
		return false
	}

	if u.Complete != nil && *u.Complete {
		s.QueueDeleteBySeriesID(id)
		s.QueuePruneCompleted()
	}
	return true
}

// ListFilter narrows ListSeries. DeletedFilter follows a
// "0|1|deleted-only" tri-state.
type ListFilter struct {
	Query          string
	Complete       *bool
	GermanComplete *bool
	DeletedFilter  string // "", "0", "1", "deleted-only"
	SortBy         string
	Order          string // "asc" | "desc"
	Limit          int
	Offset         int
}

// ListSeries returns rows matching filter.
func (s *Store) ListSeries(filter ListFilter) []models.Series {
	query := `SELECT id, url, title, site, content_type, complete, german_complete,
	          deleted, missing_german, last_film, last_season, last_episode FROM series WHERE 1=1`
	var args []any

	switch filter.DeletedFilter {
	case "deleted-only":
		query += ` AND deleted = 1`
	case "1":
		// include both
	default:
		query += ` AND deleted = 0`
	}

	if filter.Query != "" {
		query += ` AND (title LIKE ? OR url LIKE ?)`
		like := "%" + filter.Query + "%"
		args = append(args, like, like)
	}
	if filter.Complete != nil {
		query += ` AND complete = ?`
		args = append(args, boolToInt(*filter.Complete))
	}
	if filter.GermanComplete != nil {
		query += ` AND german_complete = ?`
		args = append(args, boolToInt(*filter.GermanComplete))
	}

	sortCol := "id"
	switch filter.SortBy {
	case "title", "url", "last_season", "last_episode":
		sortCol = filter.SortBy
	}
	order := "ASC"
	if strings.EqualFold(filter.Order, "desc") {
		order = "DESC"
	}
	query += " ORDER BY " + sortCol + " " + order

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.logErr("ListSeries", err)
		return nil
	}
	defer rows.Close()

	var out []models.Series
	for rows.Next() {
		ser, err := scanSeries(rows)
		if err != nil {
			s.logErr("ListSeries.scan", err)
			continue
		}
		out = append(out, ser)
	}
	return out
}

// GetSeries fetches one row by id.
func (s *Store) GetSeries(id int64) (models.Series, bool) {
	row := s.db.QueryRow(`SELECT id, url, title, site, content_type, complete, german_complete,
	          deleted, missing_german, last_film, last_season, last_episode FROM series WHERE id = ?`, id)
	ser, err := scanSeries(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("GetSeries", err)
		}
		return models.Series{}, false
	}
	return ser, true
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSeries(row scannable) (models.Series, error) {
	var ser models.Series
	var site, contentType, missingGermanJSON string
	var complete, germanComplete, deleted int

	err := row.Scan(
		&ser.ID, &ser.URL, &ser.Title, &site, &contentType,
		&complete, &germanComplete, &deleted, &missingGermanJSON,
		&ser.Progress.LastFilm, &ser.Progress.LastSeason, &ser.Progress.LastEpisode,
	)
	if err != nil {
		return models.Series{}, err
	}

	ser.Site = models.Site(site)
	ser.ContentType = models.ContentType(contentType)
	ser.Complete = complete == 1
	ser.GermanComplete = germanComplete == 1
	ser.Deleted = deleted == 1

	if err := json.Unmarshal([]byte(missingGermanJSON), &ser.MissingGerman); err != nil {
		ser.MissingGerman = nil
	}
	return ser, nil
}

// SoftDelete sets deleted=1 and resets progress/missing-German
// atomically
func (s *Store) SoftDelete(id int64) bool {
	_, err := s.db.Exec(
		`UPDATE series SET deleted = 1, complete = 0, german_complete = 1,
		 missing_german = '[]', last_film = 0, last_season = 0, last_episode = 0
		 WHERE id = ?`, id,
	)
	if err != nil {
		s.logErr("SoftDelete", err)
		return false
	}
	return true
}

// Restore clears deleted and resets progress, optionally re-enqueuing.
func (s *Store) Restore(id int64, enqueue bool) bool {
	_, err := s.db.Exec(
		`UPDATE series SET deleted = 0, complete = 0, german_complete = 1,
		 missing_german = '[]', last_film = 0, last_season = 0, last_episode = 0
		 WHERE id = ?`, id,
	)
	if err != nil {
		s.logErr("Restore", err)
		return false
	}
	if enqueue {
		s.QueueAdd(id)
	}
	return true
}

// HardDelete removes the series row and all queue entries referencing
// it by series_id. Queue rows store no url of their own, so there is no
// separate match by url.
func (s *Store) HardDelete(id int64) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("HardDelete", err)
		return false
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM queue WHERE series_id = ?`, id); err != nil {
		s.logErr("HardDelete.queue", err)
		return false
	}
	if _, err := tx.Exec(`DELETE FROM series WHERE id = ?`, id); err != nil {
		s.logErr("HardDelete.series", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		s.logErr("HardDelete.commit", err)
		return false
	}
	return true
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
