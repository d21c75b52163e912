// Package downloader wraps the external aniworld binary that performs
// the actual stream fetch, classifying its exit behavior into a small
// outcome enum the pipeline can branch on without parsing full output.
package downloader

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/atreides/aniwatch/internal/layout"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// Outcome is the result of one download attempt.
type Outcome string

const (
	OK            Outcome = "OK"
	NoStreams     Outcome = "NO_STREAMS"
	LanguageError Outcome = "LANGUAGE_ERROR"
	Failed        Outcome = "FAILED"
	Timeout       Outcome = "TIMEOUT"
)

const runTimeout = 600 * time.Second

// sleep is a function variable so tests can substitute a no-op pacer
// instead of waiting out real delays.
var sleep = time.Sleep

// Downloader runs one download attempt for an episode/film in one
// language, writing into outDir.
type Downloader interface {
	Run(ctx context.Context, episodeURL string, lang models.Language, outDir string) (Outcome, error)
}

// execDownloader shells out to the aniworld binary.
type execDownloader struct {
	binaryPath string
}

// New returns a Downloader that invokes binaryPath ("aniworld" if
// empty, resolved via PATH).
func New(binaryPath string) Downloader {
	if binaryPath == "" {
		binaryPath = "aniworld"
	}
	return &execDownloader{binaryPath: binaryPath}
}

// classificationMarkers is checked in order; the first match wins.
var classificationMarkers = []struct {
	marker  string
	outcome Outcome
}{
	{"No streams available for episode", NoStreams},
	{"No provider found for language", LanguageError},
	{"Something went wrong", Failed},
	{"No direct link found", Failed},
	{"Failed to execute any anime actions", Failed},
	{"Invalid action configuration", Failed},
	{"codec can't encode", Failed},
	{"Unexpected download error", Failed},
}

func (d *execDownloader) Run(ctx context.Context, episodeURL string, lang models.Language, outDir string) (Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.binaryPath,
		"--language", string(lang),
		"-o", outDir,
		"--episode", episodeURL,
	)
	configureCmd(cmd)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return Timeout, nil
	}

	text := output.String()
	for _, m := range classificationMarkers {
		if strings.Contains(text, m.marker) {
			return m.outcome, nil
		}
	}

	if runErr == nil {
		sleep(3 * time.Second)
		return OK, nil
	}
	return Failed, nil
}

const (
	verifyAttempts = 5
	verifyInterval = 2 * time.Second
)

// VerifyPlaced polls for a file matching t's naming pattern, downgrading
// a reported OK to a confirmed placement or a false positive. A match
// on name alone isn't enough: the binary can leave a partial or
// corrupt file carrying the right name, so the content is sniffed
// before it's trusted.
func VerifyPlaced(t layout.Target) bool {
	for attempt := 0; attempt < verifyAttempts; attempt++ {
		if found := layout.FindExisting(t); found != "" && looksLikeVideo(found) {
			return true
		}
		if attempt < verifyAttempts-1 {
			sleep(verifyInterval)
		}
	}
	return false
}

func looksLikeVideo(path string) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return mtype.Is("video/mp4") || strings.HasPrefix(mtype.String(), "video/")
}

func (o Outcome) String() string {
	return string(o)
}
