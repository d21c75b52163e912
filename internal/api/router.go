// Package api wires the control surface's resource handlers onto a
// single mux.Router, mirroring godver3-strmr/api/routes.go's
// subrouter-plus-CORS-middleware shape.
package api

import (
	"net/http"

	"github.com/atreides/aniwatch/internal/handlers"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// requestIDMiddleware tags every response with a unique id, the same
// correlation token a caller can hand back when reporting a problem.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", uuid.New().String())
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware applies the wide-open CORS policy the control
// surface requires: any origin, any method, any header.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// NewRouter builds the full control-surface route table.
func NewRouter(
	engine *handlers.EngineHandler,
	catalogHandler *handlers.CatalogHandler,
	queueHandler *handlers.QueueHandler,
	searchHandler *handlers.SearchHandler,
	configHandler *handlers.ConfigHandler,
	logsHandler *handlers.LogsHandler,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(requestIDMiddleware)

	r.HandleFunc("/start_download", engine.StartDownload).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/start_download", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/stop_download", engine.StopDownload).Methods(http.MethodPost)
	r.HandleFunc("/stop_download", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/status", engine.Status).Methods(http.MethodGet)
	r.HandleFunc("/health", engine.Health).Methods(http.MethodGet)

	r.HandleFunc("/config", configHandler.GetConfig).Methods(http.MethodGet)
	r.HandleFunc("/config", configHandler.PostConfig).Methods(http.MethodPost)
	r.HandleFunc("/config", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/pick_folder", configHandler.PickFolder).Methods(http.MethodGet)
	r.HandleFunc("/disk", configHandler.Disk).Methods(http.MethodGet)

	r.HandleFunc("/logs", logsHandler.Logs).Methods(http.MethodGet)
	r.HandleFunc("/last_run", logsHandler.LastRun).Methods(http.MethodGet)

	r.HandleFunc("/database", catalogHandler.Database).Methods(http.MethodGet)
	r.HandleFunc("/counts", catalogHandler.Counts).Methods(http.MethodGet)
	r.HandleFunc("/export", catalogHandler.Export).Methods(http.MethodPost)
	r.HandleFunc("/export", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/export_txt", catalogHandler.ExportTxt).Methods(http.MethodGet)
	r.HandleFunc("/add_link", catalogHandler.AddLink).Methods(http.MethodPost)
	r.HandleFunc("/add_link", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/check", catalogHandler.Check).Methods(http.MethodGet)
	r.HandleFunc("/anime", catalogHandler.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/anime", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/anime/restore", catalogHandler.Restore).Methods(http.MethodPost)
	r.HandleFunc("/anime/restore", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/upload_txt", catalogHandler.UploadTxt).Methods(http.MethodPost)
	r.HandleFunc("/upload_txt", handleOptions).Methods(http.MethodOptions)

	r.HandleFunc("/search", searchHandler.Search).Methods(http.MethodPost)
	r.HandleFunc("/search", handleOptions).Methods(http.MethodOptions)

	r.HandleFunc("/queue", queueHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/queue", queueHandler.Add).Methods(http.MethodPost)
	r.HandleFunc("/queue", queueHandler.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/queue", handleOptions).Methods(http.MethodOptions)

	return r
}
