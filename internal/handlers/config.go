package handlers

import (
	"net/http"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/layout"
	"github.com/dustin/go-humanize"
)

// ConfigHandler serves GET/POST /config, GET /pick_folder and GET
// /disk. Live holds the in-memory copy every other component reads;
// Manager is the disk-backed source of truth a POST writes through to
// before Live is updated, so a crash between the two never leaves a
// change visible in memory but lost on disk.
type ConfigHandler struct {
	Live    *config.Live
	Manager *config.Manager
}

func NewConfigHandler(live *config.Live, manager *config.Manager) *ConfigHandler {
	return &ConfigHandler{Live: live, Manager: manager}
}

// GetConfig handles GET /config.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Live.Get())
}

// PostConfig handles POST /config.
func (h *ConfigHandler) PostConfig(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := decodeJSON(r, &s); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid config body")
		return
	}
	if err := h.Manager.Save(s); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Live.Set(s)
	writeJSON(w, http.StatusOK, s)
}

// PickFolder handles GET /pick_folder. There is no GUI toolkit in this
// service's dependency surface, so the OS folder-picker is
// unsupported; a caller is expected to submit a path through /config
// instead.
func (h *ConfigHandler) PickFolder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsupported", "selected": ""})
}

// Disk handles GET /disk: free space at the configured download path.
func (h *ConfigHandler) Disk(w http.ResponseWriter, r *http.Request) {
	freeGB := layout.FreeSpaceGB(h.Live.Get().DownloadPath)
	freeBytes := uint64(freeGB * 1e9)
	writeJSON(w, http.StatusOK, map[string]any{
		"free_gb":    freeGB,
		"free_human": humanize.Bytes(freeBytes),
	})
}
