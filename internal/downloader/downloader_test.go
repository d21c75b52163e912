package downloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atreides/aniwatch/internal/layout"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader implements Downloader with a canned outcome, for
// pipeline/mode-engine tests that must not shell out.
type fakeDownloader struct {
	outcome Outcome
	err     error
	calls   []fakeCall
}

type fakeCall struct {
	episodeURL string
	lang       models.Language
	outDir     string
}

func (f *fakeDownloader) Run(ctx context.Context, episodeURL string, lang models.Language, outDir string) (Outcome, error) {
	f.calls = append(f.calls, fakeCall{episodeURL: episodeURL, lang: lang, outDir: outDir})
	return f.outcome, f.err
}

func TestFakeDownloader_RecordsCallsAndReturnsOutcome(t *testing.T) {
	f := &fakeDownloader{outcome: OK}
	var d Downloader = f

	outcome, err := d.Run(context.Background(), "https://aniworld.to/anime/stream/demo/staffel-1/episode-1", models.GermanDub, "/tmp/out")
	assert.NoError(t, err)
	assert.Equal(t, OK, outcome)
	assert.Len(t, f.calls, 1)
	assert.Equal(t, models.GermanDub, f.calls[0].lang)
}

func TestClassificationMarkers_PrecedenceOrder(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   Outcome
	}{
		{"no streams wins over generic failure text", "No streams available for episode\nSomething went wrong", NoStreams},
		{"language error wins over generic failure text", "No provider found for language\ncodec can't encode", LanguageError},
		{"generic failure marker", "Unexpected download error occurred", Failed},
		{"no marker, exit zero maps to OK elsewhere", "all good, nothing matched", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.output)
			assert.Equal(t, tc.want, got)
		})
	}
}

func classify(output string) Outcome {
	for _, m := range classificationMarkers {
		if strings.Contains(output, m.marker) {
			return m.outcome
		}
	}
	return ""
}

func TestNew_DefaultsBinaryName(t *testing.T) {
	d := New("")
	ed, ok := d.(*execDownloader)
	if assert.True(t, ok) {
		assert.Equal(t, "aniworld", ed.binaryPath)
	}
}

func TestNew_UsesConfiguredBinaryPath(t *testing.T) {
	d := New("/opt/tools/aniworld")
	ed, ok := d.(*execDownloader)
	if assert.True(t, ok) {
		assert.Equal(t, "/opt/tools/aniworld", ed.binaryPath)
	}
}

// minimalMP4 is a bare ftyp box, just enough for content-type
// sniffing to classify the file as video/mp4.
var minimalMP4 = []byte{
	0x00, 0x00, 0x00, 0x18, // box size: 24
	'f', 't', 'y', 'p',
	'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, // minor version
	'i', 's', 'o', 'm', 'm', 'p', '4', '1', // compatible brands
}

func TestVerifyPlaced_FindsFileWithoutWaitingOutAllAttempts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "S01E001.mp4"), minimalMP4, 0o644))

	target := layout.Target{SeriesFolder: dir, Season: models.SeasonKey{Number: 1}, Episode: 1}
	assert.True(t, VerifyPlaced(target))
}

func TestVerifyPlaced_NameMatchAloneIsNotEnough(t *testing.T) {
	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "S01E001.mp4"), []byte("not actually a video"), 0o644))

	target := layout.Target{SeriesFolder: dir, Season: models.SeasonKey{Number: 1}, Episode: 1}
	assert.False(t, VerifyPlaced(target))
}

func TestVerifyPlaced_ReturnsFalseWhenNeverPlaced(t *testing.T) {
	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })

	dir := t.TempDir()
	target := layout.Target{SeriesFolder: dir, Season: models.SeasonKey{Number: 1}, Episode: 1}
	assert.False(t, VerifyPlaced(target))
}
