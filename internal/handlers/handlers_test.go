package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"fmt"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/catalog"
	"github.com/atreides/aniwatch/internal/handlers"
	"github.com/atreides/aniwatch/internal/modeengine"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/atreides/aniwatch/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *catalog.Store {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "aniwatch-handlers-*.db")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	s, err := catalog.Open(tmpfile.Name(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeEngine struct {
	startErr error
	stopped  bool
	snap     models.CurrentDownload
	started  models.Mode
}

func (f *fakeEngine) Start(mode models.Mode) error {
	f.started = mode
	return f.startErr
}
func (f *fakeEngine) Stop()                           { f.stopped = true }
func (f *fakeEngine) Snapshot() models.CurrentDownload { return f.snap }

func TestEngineHandler_StartDownload_RejectsInvalidMode(t *testing.T) {
	h := handlers.NewEngineHandler(&fakeEngine{})
	req := httptest.NewRequest(http.MethodGet, "/start_download?mode=bogus", nil)
	rec := httptest.NewRecorder()
	h.StartDownload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEngineHandler_StartDownload_AlreadyRunning(t *testing.T) {
	fe := &fakeEngine{startErr: modeengine.ErrAlreadyRunning}
	h := handlers.NewEngineHandler(fe)
	req := httptest.NewRequest(http.MethodGet, "/start_download?mode=default", nil)
	rec := httptest.NewRecorder()
	h.StartDownload(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "already_running", body["status"])
}

func TestEngineHandler_StatusAndHealth(t *testing.T) {
	fe := &fakeEngine{snap: models.CurrentDownload{Status: models.StatusRunning, Mode: models.ModeDefault}}
	h := handlers.NewEngineHandler(fe)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"running"`)

	rec2 := httptest.NewRecorder()
	h.Health(rec2, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"ok":true}`, rec2.Body.String())
}

func TestEngineHandler_StopDownload(t *testing.T) {
	fe := &fakeEngine{}
	h := handlers.NewEngineHandler(fe)
	rec := httptest.NewRecorder()
	h.StopDownload(rec, httptest.NewRequest(http.MethodPost, "/stop_download", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fe.stopped)
}

func TestQueueHandler_AddListDelete(t *testing.T) {
	store := setupStore(t)
	id, ok := store.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")
	require.True(t, ok)

	h := handlers.NewQueueHandler(store)

	addBody, _ := json.Marshal(map[string]int64{"anime_id": id})
	rec := httptest.NewRecorder()
	h.Add(rec, httptest.NewRequest(http.MethodPost, "/queue", bytes.NewReader(addBody)))
	assert.Equal(t, http.StatusOK, rec.Code)

	recList := httptest.NewRecorder()
	h.List(recList, httptest.NewRequest(http.MethodGet, "/queue", nil))
	assert.Equal(t, http.StatusOK, recList.Code)
	assert.Contains(t, recList.Body.String(), `"anime_id":`)

	recDel := httptest.NewRecorder()
	h.Delete(recDel, httptest.NewRequest(http.MethodDelete, "/queue?anime_id="+itoa(id), nil))
	assert.Equal(t, http.StatusOK, recDel.Code)

	items := store.QueueList()
	assert.Empty(t, items)
}

func TestCatalogHandler_CheckAndDelete(t *testing.T) {
	store := setupStore(t)
	id, ok := store.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")
	require.True(t, ok)

	h := handlers.NewCatalogHandler(store, func() config.Settings { return config.DefaultSettings() })

	recCheck := httptest.NewRecorder()
	h.Check(recCheck, httptest.NewRequest(http.MethodGet, "/check?url=https://aniworld.to/anime/stream/demo", nil))
	assert.JSONEq(t, `{"exists":true}`, recCheck.Body.String())

	recDel := httptest.NewRecorder()
	h.Delete(recDel, httptest.NewRequest(http.MethodDelete, "/anime?id="+itoa(id), nil))
	assert.Equal(t, http.StatusOK, recDel.Code)

	_, found := store.GetSeries(id)
	assert.False(t, found)
}

func TestCatalogHandler_Database(t *testing.T) {
	store := setupStore(t)
	_, ok := store.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")
	require.True(t, ok)

	h := handlers.NewCatalogHandler(store, func() config.Settings { return config.DefaultSettings() })
	rec := httptest.NewRecorder()
	h.Database(rec, httptest.NewRequest(http.MethodGet, "/database", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Demo", rows[0]["title"])
}

type fakeSearchProvider struct{ results []search.Result }

func (f *fakeSearchProvider) Search(ctx context.Context, keyword string) []search.Result {
	return f.results
}

func TestSearchHandler_Search(t *testing.T) {
	fp := &fakeSearchProvider{results: []search.Result{{Title: "Demo", URL: "https://aniworld.to/x", Provider: models.SiteAniworld}}}
	h := handlers.NewSearchHandler(fp)

	body, _ := json.Marshal(map[string]string{"query": "demo"})
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Demo")
}

func TestSearchHandler_RequiresQuery(t *testing.T) {
	h := handlers.NewSearchHandler(&fakeSearchProvider{})
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigHandler_GetAndPost(t *testing.T) {
	path := t.TempDir() + "/config.json"
	mgr := config.NewManager(path)
	initial, err := mgr.Load()
	require.NoError(t, err)
	live := config.NewLive(initial)

	h := handlers.NewConfigHandler(live, mgr)

	rec := httptest.NewRecorder()
	h.GetConfig(rec, httptest.NewRequest(http.MethodGet, "/config", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	updated := initial
	updated.MinFreeGB = 5
	body, _ := json.Marshal(updated)
	recPost := httptest.NewRecorder()
	h.PostConfig(recPost, httptest.NewRequest(http.MethodPost, "/config", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, recPost.Code)
	assert.Equal(t, 5.0, live.Get().MinFreeGB)

	reloaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, 5.0, reloaded.MinFreeGB)
}

func TestConfigHandler_PickFolderUnsupported(t *testing.T) {
	h := handlers.NewConfigHandler(config.NewLive(config.DefaultSettings()), config.NewManager(t.TempDir()+"/c.json"))
	rec := httptest.NewRecorder()
	h.PickFolder(rec, httptest.NewRequest(http.MethodGet, "/pick_folder", nil))
	assert.JSONEq(t, `{"status":"unsupported","selected":""}`, rec.Body.String())
}

type fakeLogReader struct {
	all, last []string
}

func (f *fakeLogReader) ReadAllLogs() ([]string, error)  { return f.all, nil }
func (f *fakeLogReader) ReadLastRun() ([]string, error)  { return f.last, nil }

func TestLogsHandler_LogsAndLastRun(t *testing.T) {
	fl := &fakeLogReader{all: []string{"a", "b"}, last: []string{"b"}}
	h := handlers.NewLogsHandler(fl)

	rec := httptest.NewRecorder()
	h.Logs(rec, httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.JSONEq(t, `["a","b"]`, rec.Body.String())

	recLast := httptest.NewRecorder()
	h.LastRun(recLast, httptest.NewRequest(http.MethodGet, "/last_run", nil))
	assert.JSONEq(t, `["b"]`, recLast.Body.String())
}

func itoa(n int64) string {
	return fmt.Sprintf("%d", n)
}
