package handlers

import (
	"errors"
	"net/http"

	"github.com/atreides/aniwatch/internal/modeengine"
	"github.com/atreides/aniwatch/internal/models"
)

// modeRunner is the subset of *modeengine.Engine the control surface
// drives; an interface so tests can substitute a fake engine.
type modeRunner interface {
	Start(mode models.Mode) error
	Stop()
	Snapshot() models.CurrentDownload
}

var _ modeRunner = (*modeengine.Engine)(nil)

// EngineHandler serves /start_download, /stop_download, /status and
// /health.
type EngineHandler struct {
	engine modeRunner
}

func NewEngineHandler(engine modeRunner) *EngineHandler {
	return &EngineHandler{engine: engine}
}

var validModes = map[models.Mode]bool{
	models.ModeDefault:      true,
	models.ModeGerman:       true,
	models.ModeNew:          true,
	models.ModeCheckMissing: true,
	models.ModeFullCheck:    true,
}

// StartDownload handles GET/POST /start_download.
func (h *EngineHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	mode := models.Mode(r.URL.Query().Get("mode"))
	if r.Method == http.MethodPost {
		var body struct {
			Mode models.Mode `json:"mode"`
		}
		if err := decodeJSON(r, &body); err == nil && body.Mode != "" {
			mode = body.Mode
		}
	}
	if !validModes[mode] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "mode": string(mode)})
		return
	}

	err := h.engine.Start(mode)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "started", "mode": string(mode)})
	case errors.Is(err, modeengine.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already_running", "mode": string(mode)})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "mode": string(mode)})
	}
}

// StopDownload handles POST /stop_download.
func (h *EngineHandler) StopDownload(w http.ResponseWriter, r *http.Request) {
	h.engine.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "msg": "stop requested"})
}

// Status handles GET /status, returning a full snapshot of the
// engine's live state.
func (h *EngineHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             snap.Status,
		"mode":               snap.Mode,
		"current_index":      snap.CurrentIndex,
		"current_id":         snap.CurrentID,
		"current_title":      snap.CurrentTitle,
		"current_url":        snap.CurrentURL,
		"current_season":     snap.CurrentSeason,
		"current_episode":    snap.CurrentEpisode,
		"current_is_film":    snap.CurrentIsFilm,
		"started_at":         snap.StartedAt,
		"anime_started_at":   snap.AnimeStartedAt,
		"episode_started_at": snap.EpisodeStartedAt,
		"stop_requested":     snap.StopRequested,
	})
}

// Health handles GET /health.
func (h *EngineHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
