package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/atreides/aniwatch/internal/models"
)

// languageCacheTTL bounds how long a cached Languages() result is
// trusted before check-missing/full-check re-scrape it.
const languageCacheTTL = time.Hour

// CachedLanguages returns a previously recorded language set for one
// episode if it was fetched within languageCacheTTL.
func (s *Store) CachedLanguages(seriesID int64, season, episode int) (models.LanguageSet, bool) {
	var languagesJSON string
	var fetchedAt time.Time
	err := s.db.QueryRow(
		`SELECT languages, fetched_at FROM episode_language_cache
		 WHERE series_id = ? AND season = ? AND episode = ?`,
		seriesID, season, episode,
	).Scan(&languagesJSON, &fetchedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("CachedLanguages", err)
		}
		return nil, false
	}
	if time.Since(fetchedAt) > languageCacheTTL {
		return nil, false
	}

	var list []models.Language
	if err := json.Unmarshal([]byte(languagesJSON), &list); err != nil {
		s.logErr("CachedLanguages.unmarshal", err)
		return nil, false
	}
	return models.NewLanguageSet(list...), true
}

// PutLanguageCache records a freshly scraped language set.
func (s *Store) PutLanguageCache(seriesID int64, season, episode int, langs models.LanguageSet) {
	list := make([]models.Language, 0, len(langs))
	for l := range langs {
		list = append(list, l)
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		s.logErr("PutLanguageCache.marshal", err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO episode_language_cache (series_id, season, episode, languages, fetched_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(series_id, season, episode) DO UPDATE SET languages = excluded.languages, fetched_at = excluded.fetched_at`,
		seriesID, season, episode, string(encoded),
	)
	if err != nil {
		s.logErr("PutLanguageCache", err)
	}
}
