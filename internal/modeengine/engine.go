// Package modeengine is the single-worker traversal that drives the
// catalog through one of five download strategies, publishing its
// live state for the control surface to poll.
package modeengine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/catalog"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/atreides/aniwatch/internal/pipeline"
	"github.com/atreides/aniwatch/internal/scraper"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyRunning is returned by Start when a pass is already in
// progress, the CAS-style guard of the engine's entry point.
var ErrAlreadyRunning = errors.New("modeengine: already running")

// errStop and errNoSpace are internal sentinels a mode procedure
// returns to unwind out of the traversal without collapsing the
// distinction between "interrupted" and "a real per-series error" at
// every call site.
var (
	errStop    = errors.New("modeengine: stop requested")
	errNoSpace = errors.New("modeengine: disk pressure")
)

// filmPace and episodePace are the fixed inter-item delays between
// traversal attempts within one series.
const (
	filmPace    = 1 * time.Second
	episodePace = 1 * time.Second
)

// sleep is a function variable so tests can run a full traversal
// without waiting out the real pacing delays.
var sleep = time.Sleep

// PipelineRunner is the subset of *pipeline.Pipeline the engine needs;
// an interface so tests can substitute a canned responder instead of
// wiring a real catalog/scraper/downloader stack.
type PipelineRunner interface {
	Run(ctx context.Context, job pipeline.EpisodeJob) (pipeline.Outcome, error)
}

// Engine runs the mode procedures against a Store, one series at a
// time, on at most one background goroutine. Modeled on
// godver3-strmr's services/scheduler.Service Start/Stop/running-flag
// shape, generalized from a periodic multi-task loop to a single
// CAS-guarded run-to-completion pass per Start call.
type Engine struct {
	Store      *catalog.Store
	Runner     PipelineRunner
	ScraperFor func(models.Site) scraper.Scraper
	Config     func() config.Settings
	Log        *slog.Logger

	// ClearLastRun truncates the append-only last-run log at the start
	// of every pass; nil is a valid no-op for tests that don't exercise
	// the log surface.
	ClearLastRun func()

	mu      sync.Mutex
	running bool
	current models.CurrentDownload
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// Start launches mode as a background pass, returning ErrAlreadyRunning
// if one is already in flight. It returns as soon as the goroutine is
// scheduled; callers poll Snapshot for progress.
//
// The traversal's interrupt signal is carried on an errgroup-derived
// context rather than a second poll goroutine: Stop cancels it, and
// every traversal boundary checks ctx.Err() before starting its next
// unit of work. This context is never threaded into a running
// downloader call, so cancelling it never kills a subprocess already
// in flight.
func (e *Engine) Start(mode models.Mode) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.current = models.CurrentDownload{
		Status:    models.StatusRunning,
		Mode:      mode,
		StartedAt: time.Now(),
	}
	parent, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(parent)
	e.group = group
	e.cancel = cancel
	e.mu.Unlock()

	if e.ClearLastRun != nil {
		e.ClearLastRun()
	}

	group.Go(func() error {
		e.runLoop(ctx, mode)
		return nil
	})
	return nil
}

// Stop cancels the traversal's interrupt context; the engine honors it
// at the next series or episode boundary. It never kills an in-flight
// subprocess, since that runs under its own context.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.current.StopRequested = true
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current pass (if any) finishes; tests and the
// service's shutdown path both use it.
func (e *Engine) Wait() {
	e.mu.Lock()
	group := e.group
	e.mu.Unlock()
	if group != nil {
		_ = group.Wait()
	}
}

// Snapshot returns a copy of the engine's live state under the mutex,
// the only way a caller may observe it.
func (e *Engine) Snapshot() models.CurrentDownload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// PublishEpisode implements pipeline.SnapshotPublisher.
func (e *Engine) PublishEpisode(season models.SeasonKey, episode int, isFilm bool, startedAt time.Time) {
	e.mu.Lock()
	e.current.CurrentSeason = season.Number
	e.current.CurrentEpisode = episode
	e.current.CurrentIsFilm = isFilm
	e.current.EpisodeStartedAt = startedAt
	e.mu.Unlock()
}

// SetStatus implements pipeline.SnapshotPublisher.
func (e *Engine) SetStatus(status models.EngineStatus) {
	e.mu.Lock()
	e.current.Status = status
	e.mu.Unlock()
}

func (e *Engine) publishSeries(index int, ser models.Series) {
	e.mu.Lock()
	e.current.CurrentIndex = index
	e.current.CurrentID = ser.ID
	e.current.CurrentTitle = ser.Title
	e.current.CurrentURL = ser.URL
	e.current.AnimeStartedAt = time.Now()
	e.mu.Unlock()
}

// stopRequested reports whether the traversal's interrupt context has
// been cancelled. The mutex-guarded StopRequested field on
// CurrentDownload exists only for /status display; this is the signal
// the traversal itself acts on.
func (e *Engine) stopRequested(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// finish resets the live state at the end of a pass, preserving a
// disk-pressure status if one was set.
func (e *Engine) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	status := models.StatusFinished
	if e.current.Status == models.StatusNoSpace {
		status = models.StatusNoSpace
	}
	e.current = models.CurrentDownload{Status: status}
}

// runLoop builds the work list (queue first, in position order, then
// the rest of the catalog) and dispatches each eligible series to its
// mode procedure, draining any queue arrivals depth-first after every
// catalog-order item.
func (e *Engine) runLoop(ctx context.Context, mode models.Mode) {
	defer e.finish()

	queueItems := e.Store.QueueList()
	queued := make(map[int64]bool, len(queueItems))
	for _, qi := range queueItems {
		queued[qi.SeriesID] = true
	}
	rest := make([]models.Series, 0)
	for _, ser := range e.Store.ListSeries(catalog.ListFilter{}) {
		if !queued[ser.ID] {
			rest = append(rest, ser)
		}
	}

	idx := 0
	for _, qi := range queueItems {
		if e.stopRequested(ctx) {
			return
		}
		ser, ok := e.Store.GetSeries(qi.SeriesID)
		if !ok {
			e.Store.QueueDelete(qi.ID)
			continue
		}
		if !e.dispatchIfEligible(ctx, mode, ser, &idx) {
			return
		}
		e.Store.QueueDelete(qi.ID)
		if !e.drainQueue(ctx, mode, &idx) {
			return
		}
	}

	for _, ser := range rest {
		if e.stopRequested(ctx) {
			return
		}
		if !e.dispatchIfEligible(ctx, mode, ser, &idx) {
			return
		}
		if !e.drainQueue(ctx, mode, &idx) {
			return
		}
	}
}

// drainQueue processes every item added to the queue while rest was
// being traversed, depth-first: queue arrivals interrupt bulk work
// immediately rather than waiting for the current pass to finish.
func (e *Engine) drainQueue(ctx context.Context, mode models.Mode, idx *int) bool {
	for {
		items := e.Store.QueueList()
		if len(items) == 0 {
			return true
		}
		if e.stopRequested(ctx) {
			return false
		}
		qi := items[0]
		ser, ok := e.Store.GetSeries(qi.SeriesID)
		if !ok {
			e.Store.QueueDelete(qi.ID)
			continue
		}
		if !e.dispatchIfEligible(ctx, mode, ser, idx) {
			return false
		}
		e.Store.QueueDelete(qi.ID)
	}
}

func (e *Engine) dispatchIfEligible(ctx context.Context, mode models.Mode, ser models.Series, idx *int) bool {
	if !seriesEligible(mode, ser) {
		return true
	}
	*idx++
	e.publishSeries(*idx, ser)
	return e.processSeries(ctx, mode, ser)
}

// processSeries runs one mode procedure and interprets its result:
// true means "continue the traversal", false means "abort the whole
// pass" (stop requested or disk pressure). A plain error fails only
// this series.
func (e *Engine) processSeries(ctx context.Context, mode models.Mode, ser models.Series) bool {
	scr := e.ScraperFor(ser.Site)

	var err error
	switch mode {
	case models.ModeDefault:
		err = e.runDefault(ctx, ser, scr)
	case models.ModeGerman:
		err = e.runGerman(ctx, ser, scr)
	case models.ModeNew:
		err = e.runNew(ctx, ser, scr)
	case models.ModeCheckMissing:
		err = e.runCheckMissing(ctx, ser, scr)
	case models.ModeFullCheck:
		err = e.runFullCheck(ctx, ser, scr)
	}

	switch {
	case errors.Is(err, errStop):
		return false
	case errors.Is(err, errNoSpace):
		threshold := uint64(e.Config().MinFreeGB * 1e9)
		e.logger().Warn("modeengine: disk pressure, stopping pass", "series_id", ser.ID, "min_free", humanize.Bytes(threshold))
		e.SetStatus(models.StatusNoSpace)
		return false
	case err != nil:
		e.logger().Error("modeengine: series failed", "series_id", ser.ID, "mode", mode, "err", err)
	}
	return true
}

func seriesEligible(mode models.Mode, ser models.Series) bool {
	if ser.Deleted {
		return false
	}
	switch mode {
	case models.ModeDefault:
		return !ser.Complete
	case models.ModeGerman:
		return len(ser.MissingGerman) > 0
	case models.ModeNew:
		return ser.Complete
	case models.ModeCheckMissing:
		return ser.Complete || ser.Progress.LastFilm > 0 || ser.Progress.LastSeason > 0 || ser.Progress.LastEpisode > 0
	case models.ModeFullCheck:
		return true
	default:
		return false
	}
}
