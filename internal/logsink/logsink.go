// Package logsink tees process logs to stdout, a rotated all-time log
// file, and a last-run log file truncated at the start of every mode
// engine pass, mirroring the persistent log layout of the control
// surface's /logs and /last_run endpoints.
package logsink

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink owns the two on-disk log mirrors. All writes are serialized
// through one mutex, following the single-log-mutex requirement: the
// rotated writer and the truncate-on-run writer must never interleave
// a partial line.
type Sink struct {
	mu        sync.Mutex
	allLogs   *lumberjack.Logger
	lastRun   *os.File
	lastRunAt string
}

// New creates (if necessary) dataDir and opens all_logs.txt (rotated
// via lumberjack) and last_run.txt (plain, append-only until the next
// ClearLastRun) inside it.
func New(dataDir string) (*Sink, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	allLogsPath := filepath.Join(dataDir, "all_logs.txt")
	lastRunPath := filepath.Join(dataDir, "last_run.txt")

	lastRun, err := os.OpenFile(lastRunPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	return &Sink{
		allLogs: &lumberjack.Logger{
			Filename:   allLogsPath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
		lastRun:   lastRun,
		lastRunAt: lastRunPath,
	}, nil
}

// Writer returns the combined stdout + all_logs + last_run destination
// a slog handler should be constructed over.
func (s *Sink) Writer() io.Writer {
	return io.MultiWriter(os.Stdout, lockedWriter{s})
}

type lockedWriter struct{ s *Sink }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if _, err := w.s.allLogs.Write(p); err != nil {
		return 0, err
	}
	return w.s.lastRun.Write(p)
}

// ClearLastRun truncates last_run.txt; it is wired as
// modeengine.Engine.ClearLastRun, invoked at the start of every pass.
func (s *Sink) ClearLastRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.lastRun.Truncate(0)
	_, _ = s.lastRun.Seek(0, io.SeekStart)
}

// ReadAllLogs returns every line currently in all_logs.txt.
func (s *Sink) ReadAllLogs() ([]string, error) {
	return readLines(s.allLogs.Filename)
}

// ReadLastRun returns every line currently in last_run.txt.
func (s *Sink) ReadLastRun() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readLines(s.lastRunAt)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Close releases the last-run file handle; the rotated logger needs no
// explicit close.
func (s *Sink) Close() error {
	return s.lastRun.Close()
}
