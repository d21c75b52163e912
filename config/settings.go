// Package config loads and persists the service's on-disk configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atreides/aniwatch/internal/models"
)

// StorageMode selects how the download directory tree is laid out.
type StorageMode string

const (
	StorageStandard StorageMode = "standard"
	StorageSeparate StorageMode = "separate"
)

// AutostartMode is the mode engine run kicked off automatically on boot.
type AutostartMode string

const (
	AutostartNone         AutostartMode = "none"
	AutostartDefault      AutostartMode = "default"
	AutostartGerman       AutostartMode = "german"
	AutostartNew          AutostartMode = "new"
	AutostartCheckMissing AutostartMode = "check-missing"
)

// Settings is the full configuration record, persisted as JSON.
type Settings struct {
	Languages []models.Language `json:"languages"`
	MinFreeGB float64           `json:"min_free_gb"`

	DownloadPath string      `json:"download_path"`
	StorageMode  StorageMode `json:"storage_mode"`

	AnimePath        string `json:"anime_path"`
	SerienPath       string `json:"serien_path"`
	AnimeMoviesPath  string `json:"anime_movies_path"`
	SerienMoviesPath string `json:"serien_movies_path"`

	AnimeSeparateMovies  bool `json:"anime_separate_movies"`
	SerienSeparateMovies bool `json:"serien_separate_movies"`

	// MoviesPath / SeriesPath are legacy single-path overrides kept for
	// configs written before the per-content-type paths existed.
	MoviesPath string `json:"movies_path,omitempty"`
	SeriesPath string `json:"series_path,omitempty"`

	AutostartMode AutostartMode `json:"autostart_mode"`
	RefreshTitles bool          `json:"refresh_titles"`

	Port           int    `json:"port"`
	DataFolderPath string `json:"data_folder_path"`

	// AniworldBinaryPath is the executable invoked by the downloader. An
	// empty value means "aniworld", resolved via PATH.
	AniworldBinaryPath string `json:"aniworld_binary_path,omitempty"`
}

// DefaultSettings returns the configuration used to fill in any field
// missing from an on-disk config file.
func DefaultSettings() Settings {
	return Settings{
		Languages: []models.Language{
			models.GermanDub,
			models.GermanSub,
			models.EnglishDub,
			models.EnglishSub,
		},
		MinFreeGB:     2.0,
		DownloadPath:  "downloads",
		StorageMode:   StorageStandard,
		AutostartMode: AutostartNone,
		RefreshTitles: false,
		Port:          5050,
	}
}

// Manager loads and persists Settings to a JSON file, preserving any
// keys it does not itself understand so a forward config file round
// trips through an older binary without data loss.
type Manager struct {
	path string

	writeMu sync.Mutex
}

// NewManager creates a Manager reading/writing the given path.
func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// ConfigError wraps an unparseable config file found on disk.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads the config file, filling defaults for any missing field
// and writing the merged result back once. A parse failure is reported
// as a *ConfigError but does not prevent the caller from proceeding
// with defaults.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config: path not set")
	}

	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return defaults, err
		}
		return defaults, nil
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		return Settings{}, err
	}

	var unknown map[string]json.RawMessage
	if err := json.Unmarshal(raw, &unknown); err != nil {
		return DefaultSettings(), &ConfigError{Path: m.path, Err: err}
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return DefaultSettings(), &ConfigError{Path: m.path, Err: err}
	}

	changed := fillDefaults(&settings)

	if changed {
		if err := m.saveMerged(settings, unknown); err != nil {
			return settings, err
		}
	}

	return settings, nil
}

// fillDefaults writes DefaultSettings()'s values into any zero-valued
// field of s and reports whether it changed anything.
func fillDefaults(s *Settings) bool {
	d := DefaultSettings()
	changed := false

	if len(s.Languages) == 0 {
		s.Languages = d.Languages
		changed = true
	}
	if s.MinFreeGB == 0 {
		s.MinFreeGB = d.MinFreeGB
		changed = true
	}
	if s.DownloadPath == "" {
		s.DownloadPath = d.DownloadPath
		changed = true
	}
	if s.StorageMode == "" {
		s.StorageMode = d.StorageMode
		changed = true
	}
	if s.AutostartMode == "" {
		s.AutostartMode = d.AutostartMode
		changed = true
	}
	if s.Port == 0 {
		s.Port = d.Port
		changed = true
	}
	return changed
}

// Save serializes s and writes it atomically, preserving no unknown
// keys (use saveMerged to round-trip unknown keys from a prior Load).
func (m *Manager) Save(s Settings) error {
	return m.saveMerged(s, nil)
}

func (m *Manager) saveMerged(s Settings, unknown map[string]json.RawMessage) error {
	if m.path == "" {
		return errors.New("config: path not set")
	}

	merged, err := mergeUnknown(s, unknown)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	return m.atomicWrite(merged)
}

// mergeUnknown re-serializes s and folds in any key from unknown that
// s itself does not declare, so round-tripping an older config never
// drops fields a newer binary wrote.
func mergeUnknown(s Settings, unknown map[string]json.RawMessage) ([]byte, error) {
	known, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if len(unknown) == 0 {
		var buf []byte
		buf, err = jsonIndent(known)
		return buf, err
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, v := range unknown {
		if _, declared := out[k]; !declared {
			out[k] = v
		}
	}
	merged, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return jsonIndent(merged)
}

func jsonIndent(data []byte) ([]byte, error) {
	var buf []byte
	var scratch map[string]json.RawMessage
	if err := json.Unmarshal(data, &scratch); err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(scratch, "", "  ")
	if err != nil {
		return nil, err
	}
	buf = b
	return buf, nil
}

// atomicWrite implements the write-to-tmp, rename-over-target contract,
// retrying on transient permission errors before falling back to a
// direct, non-atomic write.
func (m *Manager) atomicWrite(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil && filepath.Dir(m.path) != "." {
		return err
	}

	tmp := m.path + ".tmp"
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		lastErr = writeAndRename(tmp, m.path, data)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, fs.ErrPermission) {
			break
		}
		time.Sleep(time.Duration(300*(attempt+1)) * time.Millisecond)
	}

	// Final fallback: non-atomic direct write.
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w (atomic attempt failed: %v)", m.path, err, lastErr)
	}
	return nil
}

func writeAndRename(tmp, target string, data []byte) error {
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
