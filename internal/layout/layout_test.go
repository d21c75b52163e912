package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasePath_Standard(t *testing.T) {
	cfg := config.Settings{StorageMode: config.StorageStandard, DownloadPath: "/dl"}
	assert.Equal(t, "/dl", BasePath(cfg, models.ContentAnime, false))
	assert.Equal(t, "/dl", BasePath(cfg, models.ContentSeries, true))
}

func TestBasePath_SeparateDedicatedMovies(t *testing.T) {
	cfg := config.Settings{
		StorageMode:         config.StorageSeparate,
		AnimePath:           "/dl/anime",
		AnimeSeparateMovies: true,
		AnimeMoviesPath:     "/dl/anime-movies",
	}
	assert.Equal(t, "/dl/anime-movies", BasePath(cfg, models.ContentAnime, true))
	assert.Equal(t, "/dl/anime", BasePath(cfg, models.ContentAnime, false))
}

func TestBasePath_SeparateNoDedicatedMoviesPathFallsBackToFilmeSubdir(t *testing.T) {
	cfg := config.Settings{
		StorageMode:         config.StorageSeparate,
		SerienPath:          "/dl/serien",
		SerienSeparateMovies: true,
	}
	assert.Equal(t, filepath.Join("/dl/serien", "Filme"), BasePath(cfg, models.ContentSeries, true))
}

func TestIsDedicatedMovies(t *testing.T) {
	cfg := config.Settings{StorageMode: config.StorageSeparate, AnimeSeparateMovies: true}
	assert.True(t, IsDedicatedMovies(cfg, models.ContentAnime))
	assert.False(t, IsDedicatedMovies(cfg, models.ContentSeries))

	cfg.StorageMode = config.StorageStandard
	assert.False(t, IsDedicatedMovies(cfg, models.ContentAnime))
}

func TestNamingRoundTrip_Episode(t *testing.T) {
	dir := t.TempDir()
	seriesFolder := filepath.Join(dir, "Demo Show")
	require.NoError(t, os.MkdirAll(seriesFolder, 0o755))

	target := Target{SeriesFolder: seriesFolder, Season: models.SeasonKey{Number: 1}, Episode: 3}
	freshDir := filepath.Join(seriesFolder, "raw")
	require.NoError(t, os.MkdirAll(freshDir, 0o755))
	freshFile := filepath.Join(freshDir, "Episode 03.mp4")
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0o644))

	dest, err := RenameDownloaded(target, "Some Title", models.EnglishSub)
	require.NoError(t, err)
	assert.Contains(t, dest, "Staffel 1")
	assert.Contains(t, filepath.Base(dest), "S01E003")
	assert.Contains(t, filepath.Base(dest), "[English Sub]")

	assert.True(t, AlreadyDownloaded(target))
	assert.Equal(t, models.EnglishSub, ClassifyLanguage(dest))
}

func TestNamingRoundTrip_GermanDubHasNoSuffix(t *testing.T) {
	dir := t.TempDir()
	seriesFolder := filepath.Join(dir, "Demo Show")
	target := Target{SeriesFolder: seriesFolder, Season: models.SeasonKey{Number: 2}, Episode: 10}

	name := buildFileName(target, "A Title", models.GermanDub)
	assert.Equal(t, "S02E010 - A Title.mp4", name)
	assert.Equal(t, models.GermanDub, ClassifyLanguage(name))
}

func TestDedicatedMoviesNaming(t *testing.T) {
	dir := t.TempDir()
	seriesFolder := filepath.Join(dir, "Demo Show")
	require.NoError(t, os.MkdirAll(seriesFolder, 0o755))

	target := Target{SeriesFolder: seriesFolder, SeriesTitle: "Demo Show", Episode: 1, IsFilm: true, Dedicated: true}
	freshFile := filepath.Join(seriesFolder, "Movie 01.mp4")
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0o644))

	dest, err := RenameDownloaded(target, "Demo Show Movie", models.GermanDub)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(filepath.Dir(dest)))
	assert.Contains(t, dest, "Demo Show Movie")
	assert.Contains(t, filepath.Base(dest), "Demo Show - Film01")

	assert.True(t, AlreadyDownloaded(target))

	// The now-empty original series folder should have been removed.
	_, statErr := os.Stat(seriesFolder)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAlreadyDownloaded_SiblingDotHashVariant(t *testing.T) {
	dir := t.TempDir()
	nominal := filepath.Join(dir, "Demo.Show")
	actual := filepath.Join(dir, "Demo#Show")
	require.NoError(t, os.MkdirAll(actual, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(actual, "S01E001.mp4"), []byte("x"), 0o644))

	target := Target{SeriesFolder: nominal, Season: models.SeasonKey{Number: 1}, Episode: 1}
	assert.True(t, AlreadyDownloaded(target))
}

func TestDeleteDowngrades_RemovesNonGermanKeepsGerman(t *testing.T) {
	dir := t.TempDir()
	seriesFolder := filepath.Join(dir, "Demo Show")
	seasonDir := filepath.Join(seriesFolder, "Staffel 1")
	require.NoError(t, os.MkdirAll(seasonDir, 0o755))

	german := filepath.Join(seasonDir, "S01E003.mp4")
	downgrade := filepath.Join(seasonDir, "S01E003 [English Sub].mp4")
	require.NoError(t, os.WriteFile(german, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(downgrade, []byte("x"), 0o644))

	target := Target{SeriesFolder: seriesFolder, Season: models.SeasonKey{Number: 1}, Episode: 3}
	require.NoError(t, DeleteDowngrades(target))

	_, err := os.Stat(german)
	assert.NoError(t, err)
	_, err = os.Stat(downgrade)
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeTitle_StripsForbiddenCharsAndMovieTokens(t *testing.T) {
	assert.Equal(t, "One Piece", SanitizeTitle("One: Piece <The Movie>"))
	assert.Equal(t, "Attack on Titan", SanitizeTitle("Attack on Titan [Movie]"))
}

func TestSanitizeFolderName_PreservesDots(t *testing.T) {
	assert.Equal(t, "Re.Zero", SanitizeFolderName("Re.Zero"))
}

func TestRenameDownloaded_NotFound(t *testing.T) {
	dir := t.TempDir()
	target := Target{SeriesFolder: filepath.Join(dir, "Empty"), Season: models.SeasonKey{Number: 1}, Episode: 1}
	_, err := RenameDownloaded(target, "x", models.GermanDub)
	assert.ErrorIs(t, err, ErrFreshFileNotFound)
}

func TestScan_FindsEpisodesAndFilmsWithLanguage(t *testing.T) {
	dir := t.TempDir()
	seriesFolder := filepath.Join(dir, "Demo Show")
	staffel := filepath.Join(seriesFolder, "Staffel 1")
	filme := filepath.Join(seriesFolder, "Filme")
	require.NoError(t, os.MkdirAll(staffel, 0o755))
	require.NoError(t, os.MkdirAll(filme, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staffel, "S01E001 - A Title.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staffel, "S01E002 - B Title [English Sub].mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filme, "Film01 - A Movie.mp4"), []byte("x"), 0o644))

	found := Scan(seriesFolder)
	require.Len(t, found, 3)

	byEpisode := map[int]PlacedFile{}
	for _, f := range found {
		byEpisode[f.Episode*10+boolToInt(f.IsFilm)] = f
	}

	ep1 := byEpisode[1]
	assert.Equal(t, models.GermanDub, ep1.Language)
	assert.False(t, ep1.IsFilm)

	ep2 := byEpisode[2]
	assert.Equal(t, models.EnglishSub, ep2.Language)

	film := byEpisode[11]
	assert.True(t, film.IsFilm)
	assert.Equal(t, models.GermanDub, film.Language)
}

func TestScan_MissingDirectoryYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Scan(filepath.Join(dir, "Nonexistent")))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
