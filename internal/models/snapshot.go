package models

import "time"

// EngineStatus is the coarse-grained state of the mode engine exposed
// by /status.
type EngineStatus string

const (
	StatusIdle       EngineStatus = "idle"
	StatusRunning    EngineStatus = "running"
	StatusFinished   EngineStatus = "finished"
	StatusNoSpace    EngineStatus = "kein-speicher"
)

// Mode is one of the five operational strategies of the mode engine.
type Mode string

const (
	ModeDefault      Mode = "default"
	ModeGerman       Mode = "german"
	ModeNew          Mode = "new"
	ModeCheckMissing Mode = "check-missing"
	ModeFullCheck    Mode = "full-check"
)

// CurrentDownload is the process-wide live state of a running mode
// engine pass. The mode engine resets it at the start and end of every
// pass and is its only writer, with the one exception noted on the
// field below.
type CurrentDownload struct {
	Status EngineStatus
	Mode   Mode

	CurrentIndex int
	CurrentID    int64
	CurrentTitle string
	CurrentURL   string

	CurrentSeason  int
	CurrentEpisode int
	CurrentIsFilm  bool

	StartedAt       time.Time
	AnimeStartedAt  time.Time
	EpisodeStartedAt time.Time

	// StopRequested may be set by the control surface at any time
	// (through Engine.Stop); it is reported by /status, while the
	// traversal itself stops on its cancelled context at series/episode
	// boundaries.
	StopRequested bool
}
