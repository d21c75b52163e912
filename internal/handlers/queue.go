package handlers

import (
	"net/http"
	"strconv"

	"github.com/atreides/aniwatch/internal/models"
)

type queueStore interface {
	QueueList() []models.QueueItem
	QueueAdd(seriesID int64) bool
	QueueReorder(orderedQueueIDs []int64) bool
	QueueDelete(queueID int64) bool
	QueueDeleteBySeriesID(seriesID int64) bool
	QueueClear() bool
}

// QueueHandler serves GET/POST/DELETE /queue.
type QueueHandler struct {
	store queueStore
}

func NewQueueHandler(store queueStore) *QueueHandler {
	return &QueueHandler{store: store}
}

func queueItemJSON(item models.QueueItem) map[string]any {
	return map[string]any{
		"id":         item.ID,
		"anime_id":   item.SeriesID,
		"series_url": item.SeriesURL,
		"position":   item.Position,
		"added_at":   item.AddedAt,
	}
}

// List handles GET /queue.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.store.QueueList()
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, queueItemJSON(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": out})
}

// Add handles POST /queue: either {anime_id} to enqueue one series, or
// {order:[qid,...]} to reorder the whole queue.
func (h *QueueHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AnimeID int64   `json:"anime_id"`
		Order   []int64 `json:"order"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(body.Order) > 0 {
		if !h.store.QueueReorder(body.Order) {
			writeJSONError(w, http.StatusInternalServerError, "reorder failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
		return
	}

	if body.AnimeID == 0 {
		writeJSONError(w, http.StatusBadRequest, "anime_id or order is required")
		return
	}
	if !h.store.QueueAdd(body.AnimeID) {
		writeJSONError(w, http.StatusBadRequest, "series is already queued or complete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

// Delete handles DELETE /queue?id=... or ?anime_id=..., or with
// neither, clears the whole queue.
func (h *QueueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("id") != "":
		id, err := strconv.ParseInt(q.Get("id"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid id")
			return
		}
		h.store.QueueDelete(id)
	case q.Get("anime_id") != "":
		id, err := strconv.ParseInt(q.Get("anime_id"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid anime_id")
			return
		}
		h.store.QueueDeleteBySeriesID(id)
	default:
		h.store.QueueClear()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
