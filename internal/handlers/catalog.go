package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/catalog"
	"github.com/atreides/aniwatch/internal/layout"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/atreides/aniwatch/internal/scraper"
)

type catalogStore interface {
	UpsertSeries(url string, site models.Site, title string) (int64, bool)
	ListSeries(filter catalog.ListFilter) []models.Series
	GetSeries(id int64) (models.Series, bool)
	SoftDelete(id int64) bool
	HardDelete(id int64) bool
	Restore(id int64, enqueue bool) bool
	QueueAdd(seriesID int64) bool
}

// CatalogHandler serves /database, /export, /add_link, /search's
// companion catalog mutations, /check, /anime (delete/restore),
// /upload_txt, /export_txt and /counts.
type CatalogHandler struct {
	store  catalogStore
	config func() config.Settings
}

func NewCatalogHandler(store catalogStore, cfg func() config.Settings) *CatalogHandler {
	return &CatalogHandler{store: store, config: cfg}
}

func seriesJSON(s models.Series) map[string]any {
	return map[string]any{
		"id":              s.ID,
		"url":             s.URL,
		"title":           s.Title,
		"site":            s.Site,
		"content_type":    s.ContentType,
		"complete":        s.Complete,
		"german_complete": s.GermanComplete,
		"deleted":         s.Deleted,
		"missing_german":  s.MissingGerman,
		"progress": map[string]int{
			"last_film":    s.Progress.LastFilm,
			"last_season":  s.Progress.LastSeason,
			"last_episode": s.Progress.LastEpisode,
		},
	}
}

// Database handles GET /database.
func (h *CatalogHandler) Database(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.ListFilter{
		Query:  q.Get("q"),
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
	}
	if v := q.Get("complete"); v == "0" || v == "1" {
		b := v == "1"
		filter.Complete = &b
	} else if v == "deleted" {
		filter.DeletedFilter = "deleted-only"
	}
	if v := q.Get("deutsch"); v == "0" || v == "1" {
		b := v == "1"
		filter.GermanComplete = &b
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}

	rows := h.store.ListSeries(filter)
	out := make([]map[string]any, 0, len(rows))
	for _, s := range rows {
		out = append(out, seriesJSON(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) upsertFromURL(ctx context.Context, url string) (int64, bool) {
	site, ok := scraper.SiteForURL(url)
	if !ok {
		return 0, false
	}
	title, _ := scraper.ForSite(site).SeriesTitle(ctx, url)
	return h.store.UpsertSeries(url, site, title)
}

// Export handles POST /export: add a link to the catalog without
// starting a download.
func (h *CatalogHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.addLink(w, r)
}

// AddLink handles POST /add_link, an alias of /export.
func (h *CatalogHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	h.addLink(w, r)
}

func (h *CatalogHandler) addLink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &body); err != nil || body.URL == "" {
		writeJSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	id, ok := h.upsertFromURL(r.Context(), body.URL)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "unsupported or invalid url")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": id})
}

// Check handles GET /check?url=....
func (h *CatalogHandler) Check(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	exists := false
	for _, s := range h.store.ListSeries(catalog.ListFilter{}) {
		if s.URL == url {
			exists = true
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Delete handles DELETE /anime?id=....
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, ok := h.store.GetSeries(id); !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	h.store.HardDelete(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Restore handles POST /anime/restore: {id, queue?}.
func (h *CatalogHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID    int64 `json:"id"`
		Queue bool  `json:"queue"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.store.Restore(body.ID, body.Queue) {
		writeJSONError(w, http.StatusInternalServerError, "restore failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UploadTxt handles POST /upload_txt: a multipart file of
// newline-delimited series URLs, each upserted into the catalog.
func (h *CatalogHandler) UploadTxt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		url := strings.TrimSpace(line)
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		if _, ok := h.upsertFromURL(r.Context(), url); ok {
			count++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count, "msg": "upload complete"})
}

// ExportTxt handles GET /export_txt: a newline-delimited list of every
// active series URL, the inverse of UploadTxt.
func (h *CatalogHandler) ExportTxt(w http.ResponseWriter, r *http.Request) {
	rows := h.store.ListSeries(catalog.ListFilter{})
	var b strings.Builder
	for _, s := range rows {
		b.WriteString(s.URL)
		b.WriteString("\n")
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

// Counts handles GET /counts?id=... or ?title=..., reporting
// per-season episode counts from what's actually on disk.
func (h *CatalogHandler) Counts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var series models.Series
	var found bool

	if idStr := q.Get("id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid id")
			return
		}
		series, found = h.store.GetSeries(id)
	} else if title := q.Get("title"); title != "" {
		for _, s := range h.store.ListSeries(catalog.ListFilter{Query: title}) {
			if strings.EqualFold(s.Title, title) {
				series, found = s, true
				break
			}
		}
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "series not found")
		return
	}

	cfg := h.config()
	basePath := layout.BasePath(cfg, series.ContentType, false)
	seriesFolder := filepath.Join(basePath, layout.SanitizeFolderName(series.Title))

	perSeason := map[string]int{}
	films := 0
	for _, placed := range layout.Scan(seriesFolder) {
		if placed.IsFilm {
			films++
			continue
		}
		perSeason[placed.Season.String()]++
	}

	totalEpisodes := 0
	for _, n := range perSeason {
		totalEpisodes += n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"per_season":     perSeason,
		"total_seasons":  len(perSeason),
		"total_episodes": totalEpisodes,
		"films":          films,
	})
}
