package handlers

import "net/http"

type logReader interface {
	ReadAllLogs() ([]string, error)
	ReadLastRun() ([]string, error)
}

// LogsHandler serves GET /logs and GET /last_run.
type LogsHandler struct {
	sink logReader
}

func NewLogsHandler(sink logReader) *LogsHandler {
	return &LogsHandler{sink: sink}
}

func (h *LogsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	lines, err := h.sink.ReadAllLogs()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *LogsHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	lines, err := h.sink.ReadLastRun()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lines)
}
