// Package pipeline runs the single-episode download cycle: check disk
// space, skip what's already on disk, cycle through the configured
// language order against the downloader, verify and place the result,
// and record what's still missing in German.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/catalog"
	"github.com/atreides/aniwatch/internal/downloader"
	"github.com/atreides/aniwatch/internal/layout"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/atreides/aniwatch/internal/scraper"
)

// Outcome is the result of one pipeline run, a superset of
// downloader.Outcome: SKIPPED and NoSpace only ever come from this
// layer, never from the downloader itself.
type Outcome string

const (
	OK        Outcome = "OK"
	Skipped   Outcome = "SKIPPED"
	NoStreams Outcome = "NO_STREAMS"
	NoSpace   Outcome = "NO_SPACE"
	Failed    Outcome = "FAILED"
)

// languageRetryDelay separates two failed language attempts in the same
// episode, mirroring the downloader's own post-OK flush delay.
const languageRetryDelay = 2 * time.Second

// sleep is a function variable so tests can run the language cycle
// without waiting out real delays.
var sleep = time.Sleep

// SnapshotPublisher is the mode engine's live-state sink. Run calls
// PublishEpisode exactly once per invocation, at the start, before
// doing any I/O that could fail, and SetStatus only when the
// free-space check fails.
type SnapshotPublisher interface {
	PublishEpisode(season models.SeasonKey, episode int, isFilm bool, startedAt time.Time)
	SetStatus(status models.EngineStatus)
}

// EpisodeJob fully describes one episode or film to run through the
// pipeline.
type EpisodeJob struct {
	Series     models.Series
	Scraper    scraper.Scraper
	Season     models.SeasonKey
	Episode    int
	EpisodeURL string
	IsFilm     bool

	// GermanOnly mirrors the engine's german mode: only German Dub is
	// attempted, already_downloaded is never consulted, and a
	// successful German placement triggers DeleteDowngrades.
	GermanOnly bool

	// UseLanguageCache lets check-missing and full-check reuse a
	// language set already scraped earlier in the same pass instead of
	// hitting the site again for an episode they've already visited.
	UseLanguageCache bool
}

// Pipeline holds the collaborators one Run call needs. A single
// instance is reused across every episode in a mode engine pass.
type Pipeline struct {
	Store      *catalog.Store
	Downloader downloader.Downloader
	Config     config.Settings
	Snapshot   SnapshotPublisher
}

// Run executes the eight-step episode cycle for job.
func (p *Pipeline) Run(ctx context.Context, job EpisodeJob) (Outcome, error) {
	startedAt := time.Now()
	p.Snapshot.PublishEpisode(job.Season, job.Episode, job.IsFilm, startedAt)

	contentType := job.Series.ContentType
	basePath := layout.BasePath(p.Config, contentType, job.IsFilm)
	if layout.FreeSpaceGB(basePath) < p.Config.MinFreeGB {
		p.Snapshot.SetStatus(models.StatusNoSpace)
		return NoSpace, nil
	}

	dedicated := job.IsFilm && layout.IsDedicatedMovies(p.Config, contentType)
	seriesFolder := filepath.Join(basePath, layout.SanitizeFolderName(job.Series.Title))
	target := layout.Target{
		SeriesFolder: seriesFolder,
		SeriesTitle:  job.Series.Title,
		Season:       job.Season,
		Episode:      job.Episode,
		IsFilm:       job.IsFilm,
		Dedicated:    dedicated,
	}

	if !job.GermanOnly && layout.AlreadyDownloaded(target) {
		return Skipped, nil
	}

	var available models.LanguageSet
	cached := false
	if job.UseLanguageCache {
		available, cached = p.Store.CachedLanguages(job.Series.ID, job.Season.Number, job.Episode)
	}
	if !cached {
		var err error
		available, err = job.Scraper.Languages(ctx, job.EpisodeURL)
		if err != nil {
			return Failed, err
		}
		if job.UseLanguageCache {
			p.Store.PutLanguageCache(job.Series.ID, job.Season.Number, job.Episode, available)
		}
	}
	if available.Empty() {
		return NoStreams, nil
	}

	languageOrder := p.Config.Languages
	if job.GermanOnly {
		languageOrder = []models.Language{models.GermanDub}
	}

	var downloaded, germanAvailable bool
	for _, lang := range languageOrder {
		if !available.Has(lang) {
			continue
		}

		result, err := p.Downloader.Run(ctx, job.EpisodeURL, lang, basePath)
		if err != nil {
			sleep(languageRetryDelay)
			continue
		}

		switch result {
		case downloader.NoStreams:
			return NoStreams, nil
		case downloader.OK:
			if !downloader.VerifyPlaced(target) {
				continue
			}
			title, err := job.Scraper.EpisodeTitle(ctx, job.EpisodeURL, false)
			if err != nil {
				title = ""
			}
			if _, err := layout.RenameDownloaded(target, title, lang); err != nil {
				continue
			}
			if lang == models.GermanDub && job.GermanOnly {
				_ = layout.DeleteDowngrades(target)
			}
			downloaded = true
			if lang == models.GermanDub {
				germanAvailable = true
			}
		case downloader.LanguageError:
			sleep(languageRetryDelay)
			continue
		default: // Failed, Timeout
			sleep(languageRetryDelay)
			continue
		}

		if downloaded {
			break
		}
	}

	if !germanAvailable {
		p.recordMissingGerman(job, basePath)
	}

	if downloaded {
		return OK, nil
	}
	return Failed, nil
}

// recordMissingGerman appends job.EpisodeURL to the series' missing-
// German set, but only while disk space allows it — the same guard
// step 2 applied to the download itself.
func (p *Pipeline) recordMissingGerman(job EpisodeJob, basePath string) {
	if layout.FreeSpaceGB(basePath) < p.Config.MinFreeGB {
		return
	}
	for _, existing := range job.Series.MissingGerman {
		if existing == job.EpisodeURL {
			return
		}
	}
	updated := append(append([]string{}, job.Series.MissingGerman...), job.EpisodeURL)
	p.Store.UpdateSeries(job.Series.ID, catalog.SeriesUpdate{MissingGerman: &updated})
}
