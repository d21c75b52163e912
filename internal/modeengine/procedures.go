package modeengine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/atreides/aniwatch/internal/catalog"
	"github.com/atreides/aniwatch/internal/layout"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/atreides/aniwatch/internal/pipeline"
	"github.com/atreides/aniwatch/internal/scraper"
)

// runDefault advances a non-complete series from its saved watermark.
// It marks the series complete only if this pass actually placed
// something; a run that found nothing new leaves Complete untouched so
// a later pass keeps retrying from the same point.
func (e *Engine) runDefault(ctx context.Context, ser models.Series, scr scraper.Scraper) error {
	startFilm := ser.Progress.LastFilm + 1
	lastFilm, filmsPlaced, err := e.downloadFilms(ctx, ser, scr, startFilm, false)
	if err != nil {
		return err
	}

	startSeason := ser.Progress.LastSeason
	if startSeason == 0 {
		startSeason = 1
	}
	startEpisode := ser.Progress.LastEpisode
	if startEpisode == 0 {
		startEpisode = 1
	}
	lastSeason, lastEpisode, episodesPlaced, err := e.downloadSeasons(ctx, ser, scr, startSeason, startEpisode, false)
	if err != nil {
		return err
	}

	progress := models.Progress{LastFilm: maxInt(ser.Progress.LastFilm, lastFilm), LastSeason: lastSeason, LastEpisode: lastEpisode}
	update := catalog.SeriesUpdate{Progress: &progress}
	if filmsPlaced || episodesPlaced {
		complete := true
		update.Complete = &complete
	}
	e.Store.UpdateSeries(ser.ID, update)
	e.recomputeGermanComplete(ser.ID)
	return nil
}

// runNew looks for content added after a series was already marked
// complete, starting one past its saved watermark so the last known
// item isn't rechecked.
func (e *Engine) runNew(ctx context.Context, ser models.Series, scr scraper.Scraper) error {
	startFilm := ser.Progress.LastFilm + 1
	lastFilm, filmsPlaced, err := e.downloadFilms(ctx, ser, scr, startFilm, false)
	if err != nil {
		return err
	}

	startSeason := ser.Progress.LastSeason
	if startSeason == 0 {
		startSeason = 1
	}
	startEpisode := ser.Progress.LastEpisode + 1
	lastSeason, lastEpisode, episodesPlaced, err := e.downloadSeasons(ctx, ser, scr, startSeason, startEpisode, false)
	if err != nil {
		return err
	}

	if !filmsPlaced && !episodesPlaced {
		return nil
	}
	progress := models.Progress{LastFilm: maxInt(ser.Progress.LastFilm, lastFilm), LastSeason: lastSeason, LastEpisode: lastEpisode}
	e.Store.UpdateSeries(ser.ID, catalog.SeriesUpdate{Progress: &progress})
	e.recomputeGermanComplete(ser.ID)
	return nil
}

// runCheckMissing re-walks a series from the very beginning in full
// language-priority order, catching anything the watermark-based
// modes skipped past (a season that was originally scraped
// incompletely, for instance). Progress only ever moves forward.
func (e *Engine) runCheckMissing(ctx context.Context, ser models.Series, scr scraper.Scraper) error {
	lastFilm, filmsPlaced, err := e.downloadFilms(ctx, ser, scr, 1, true)
	if err != nil {
		return err
	}
	lastSeason, lastEpisode, episodesPlaced, err := e.downloadSeasons(ctx, ser, scr, 1, 1, true)
	if err != nil {
		return err
	}
	if !filmsPlaced && !episodesPlaced {
		return nil
	}

	progress := models.Progress{
		LastFilm:    maxInt(ser.Progress.LastFilm, lastFilm),
		LastSeason:  maxInt(ser.Progress.LastSeason, lastSeason),
		LastEpisode: maxInt(ser.Progress.LastEpisode, lastEpisode),
	}
	e.Store.UpdateSeries(ser.ID, catalog.SeriesUpdate{Progress: &progress})
	e.recomputeGermanComplete(ser.ID)
	return nil
}

// runFullCheck is the exhaustive audit: every placed file gets its
// language reclassified against what's actually available now, then
// the series is walked from season 1/film 1 exactly as in
// check-missing. Complete is only set when both traversals ran to
// natural exhaustion rather than being cut short by an interruption.
func (e *Engine) runFullCheck(ctx context.Context, ser models.Series, scr scraper.Scraper) error {
	cfg := e.Config()
	basePath := layout.BasePath(cfg, ser.ContentType, false)
	seriesFolder := filepath.Join(basePath, layout.SanitizeFolderName(ser.Title))

	for _, placed := range layout.Scan(seriesFolder) {
		if e.stopRequested(ctx) {
			return errStop
		}
		if placed.Language.IsGerman() {
			continue
		}
		url := scr.EpisodeURL(ser.URL, placed.Season, placed.Episode)
		if placed.IsFilm {
			url = scr.FilmURL(ser.URL, placed.Episode)
		}
		available, err := scr.Languages(ctx, url)
		if err != nil || !available.Has(models.GermanDub) {
			continue
		}
		outcome, err := e.Runner.Run(ctx, pipeline.EpisodeJob{
			Series: ser, Scraper: scr, Season: placed.Season, Episode: placed.Episode,
			EpisodeURL: url, IsFilm: placed.IsFilm, GermanOnly: true,
		})
		if err != nil {
			continue
		}
		if outcome == pipeline.NoSpace {
			return errNoSpace
		}
	}

	lastFilm, _, filmErr := e.downloadFilms(ctx, ser, scr, 1, true)
	lastSeason, lastEpisode, _, seasonErr := e.downloadSeasons(ctx, ser, scr, 1, 1, true)
	if filmErr != nil {
		return filmErr
	}
	if seasonErr != nil {
		return seasonErr
	}

	hasLocalContent := lastFilm > 0 || lastSeason > 0 || lastEpisode > 0 || ser.Progress.LastSeason > 0 || ser.Progress.LastFilm > 0
	progress := models.Progress{
		LastFilm:    maxInt(ser.Progress.LastFilm, lastFilm),
		LastSeason:  maxInt(ser.Progress.LastSeason, lastSeason),
		LastEpisode: maxInt(ser.Progress.LastEpisode, lastEpisode),
	}
	update := catalog.SeriesUpdate{Progress: &progress}
	if hasLocalContent {
		complete := true
		update.Complete = &complete
	}
	e.Store.UpdateSeries(ser.ID, update)
	e.recomputeGermanComplete(ser.ID)
	return nil
}

// runGerman retries every episode a series is still missing in German,
// dropping each one from the saved list as soon as it lands.
func (e *Engine) runGerman(ctx context.Context, ser models.Series, scr scraper.Scraper) error {
	remaining := make([]string, 0, len(ser.MissingGerman))
	changed := false

	for _, url := range ser.MissingGerman {
		if e.stopRequested(ctx) {
			remaining = append(remaining, url)
			continue
		}

		season, episode, isFilm, err := parseEpisodeRef(url)
		if err != nil {
			remaining = append(remaining, url)
			continue
		}

		outcome, err := e.Runner.Run(ctx, pipeline.EpisodeJob{
			Series: ser, Scraper: scr, Season: season, Episode: episode,
			EpisodeURL: url, IsFilm: isFilm, GermanOnly: true,
		})
		if err != nil {
			remaining = append(remaining, url)
			continue
		}
		switch outcome {
		case pipeline.OK:
			changed = true
		case pipeline.NoSpace:
			remaining = append(remaining, url)
			e.Store.UpdateSeries(ser.ID, catalog.SeriesUpdate{MissingGerman: &remaining})
			return errNoSpace
		default:
			remaining = append(remaining, url)
		}
	}

	if changed {
		e.Store.UpdateSeries(ser.ID, catalog.SeriesUpdate{MissingGerman: &remaining})
	}
	e.recomputeGermanComplete(ser.ID)

	if e.stopRequested(ctx) {
		return errStop
	}
	return nil
}

// recomputeGermanComplete re-derives german_complete directly from the
// current missing-German set rather than re-scraping anything.
func (e *Engine) recomputeGermanComplete(seriesID int64) {
	ser, ok := e.Store.GetSeries(seriesID)
	if !ok {
		return
	}
	complete := len(ser.MissingGerman) == 0
	if complete == ser.GermanComplete {
		return
	}
	e.Store.UpdateSeries(seriesID, catalog.SeriesUpdate{GermanComplete: &complete})
}

// downloadFilms walks film numbers starting at start until the first
// NO_STREAMS or FAILED outcome, returning the last film number placed
// or skipped.
func (e *Engine) downloadFilms(ctx context.Context, ser models.Series, scr scraper.Scraper, start int, useLanguageCache bool) (last int, placedAny bool, err error) {
	last = start - 1
	for n := start; ; n++ {
		if e.stopRequested(ctx) {
			return last, placedAny, errStop
		}
		url := scr.FilmURL(ser.URL, n)
		outcome, runErr := e.Runner.Run(ctx, pipeline.EpisodeJob{
			Series: ser, Scraper: scr, Season: models.SeasonKey{IsFilme: true},
			Episode: n, EpisodeURL: url, IsFilm: true, UseLanguageCache: useLanguageCache,
		})
		if runErr != nil {
			return last, placedAny, fmt.Errorf("film %d: %w", n, runErr)
		}
		switch outcome {
		case pipeline.NoSpace:
			return last, placedAny, errNoSpace
		case pipeline.NoStreams, pipeline.Failed:
			return last, placedAny, nil
		case pipeline.OK:
			last = n
			placedAny = true
		case pipeline.Skipped:
			last = n
		}
		sleep(filmPace)
	}
}

// downloadSeasons walks seasons from startSeason (episodes from
// startEpisode in the first season, 1 thereafter), ending a season
// after three consecutive failures and the whole series after two
// consecutive empty seasons.
func (e *Engine) downloadSeasons(ctx context.Context, ser models.Series, scr scraper.Scraper, startSeason, startEpisode int, useLanguageCache bool) (lastSeason, lastEpisode int, placedAny bool, err error) {
	lastSeason = startSeason - 1
	emptySeasonsInARow := 0

	for season := startSeason; ; season++ {
		episodeStart := 1
		if season == startSeason {
			episodeStart = startEpisode
		}

		consecutiveFail := 0
		episodesThisSeason := 0
		seasonLastEpisode := episodeStart - 1
		key := models.SeasonKey{Number: season}

		for episode := episodeStart; consecutiveFail < 3; episode++ {
			if e.stopRequested(ctx) {
				return maxInt(lastSeason, season), maxInt(lastEpisode, seasonLastEpisode), placedAny, errStop
			}
			url := scr.EpisodeURL(ser.URL, key, episode)
			outcome, runErr := e.Runner.Run(ctx, pipeline.EpisodeJob{
				Series: ser, Scraper: scr, Season: key, Episode: episode, EpisodeURL: url,
				UseLanguageCache: useLanguageCache,
			})
			if runErr != nil {
				return maxInt(lastSeason, season), maxInt(lastEpisode, seasonLastEpisode), placedAny, fmt.Errorf("season %d episode %d: %w", season, episode, runErr)
			}
			switch outcome {
			case pipeline.NoSpace:
				return maxInt(lastSeason, season), maxInt(lastEpisode, seasonLastEpisode), placedAny, errNoSpace
			case pipeline.NoStreams, pipeline.Failed:
				consecutiveFail++
			case pipeline.OK, pipeline.Skipped:
				consecutiveFail = 0
				seasonLastEpisode = episode
				episodesThisSeason++
				if outcome == pipeline.OK {
					placedAny = true
				}
			}
			sleep(episodePace)
		}

		if episodesThisSeason > 0 {
			lastSeason = season
			lastEpisode = seasonLastEpisode
			emptySeasonsInARow = 0
		} else {
			emptySeasonsInARow++
			if emptySeasonsInARow >= 2 {
				return lastSeason, lastEpisode, placedAny, nil
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
