package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atreides/aniwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aniworldSeriesPage = `
<html><body>
<div class="series-title"><h1><span>Demo Show</span></h1></div>
<div class="hosterSiteDirectNav">
  <ul><li>Staffeln</li><li><a href="/staffel-1">1</a></li><li><a href="/staffel-2">2</a></li><li><a href="/filme">Filme</a></li></ul>
</div>
</body></html>`

const aniworldSeasonPage = `
<html><body>
<table class="seasonEpisodesList">
  <tbody id="season1">
    <tr><td><meta itemprop="episodeNumber" content="1"></td></tr>
    <tr><td><meta itemprop="episodeNumber" content="2"></td></tr>
    <tr class="upcoming"><td><meta itemprop="episodeNumber" content="3"></td></tr>
  </tbody>
</table>
</body></html>`

const aniworldEpisodePage = `
<html><body>
<div class="changeLanguageBox">
  <img src="/public/img/german.svg">
  <img src="/public/img/japanese-german.svg">
</div>
<span class="episodeGermanTitle">Der Anfang</span>
<small class="episodeEnglishTitle">The Beginning</small>
</body></html>`

func newTestServer(t *testing.T, pages map[string]string) (*httptest.Server, *httpClient) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, newHTTPClientWithClient(srv.Client())
}

func TestAniworldScraper_SeriesTitle(t *testing.T) {
	srv, client := newTestServer(t, map[string]string{"/anime/stream/demo": aniworldSeriesPage})
	s := &aniworldScraper{http: client}

	title, err := s.SeriesTitle(context.Background(), srv.URL+"/anime/stream/demo")
	require.NoError(t, err)
	assert.Equal(t, "Demo Show", title)
}

func TestAniworldScraper_SeasonNumbers(t *testing.T) {
	srv, client := newTestServer(t, map[string]string{"/anime/stream/demo": aniworldSeriesPage})
	s := &aniworldScraper{http: client}

	seasons, err := s.SeasonNumbers(context.Background(), srv.URL+"/anime/stream/demo")
	require.NoError(t, err)
	require.Len(t, seasons, 3)
	assert.Equal(t, models.SeasonKey{Number: 1}, seasons[0])
	assert.Equal(t, models.SeasonKey{Number: 2}, seasons[1])
	assert.Equal(t, models.SeasonKey{IsFilme: true}, seasons[2])
}

func TestAniworldScraper_Episodes_ExcludesUpcoming(t *testing.T) {
	srv, client := newTestServer(t, map[string]string{"/anime/stream/demo/staffel-1": aniworldSeasonPage})
	s := &aniworldScraper{http: client}

	episodes, err := s.Episodes(context.Background(), srv.URL+"/anime/stream/demo", models.SeasonKey{Number: 1})
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, 1, episodes[0].Number)
	assert.Equal(t, 2, episodes[1].Number)
}

func TestAniworldScraper_Languages(t *testing.T) {
	srv, client := newTestServer(t, map[string]string{"/anime/stream/demo/staffel-1/episode-1": aniworldEpisodePage})
	s := &aniworldScraper{http: client}

	langs, err := s.Languages(context.Background(), srv.URL+"/anime/stream/demo/staffel-1/episode-1")
	require.NoError(t, err)
	assert.True(t, langs.Has(models.GermanDub))
	assert.True(t, langs.Has(models.GermanSub))
	assert.False(t, langs.Has(models.EnglishDub))
}

func TestAniworldScraper_EpisodeTitle_PrefersGerman(t *testing.T) {
	srv, client := newTestServer(t, map[string]string{"/anime/stream/demo/staffel-1/episode-1": aniworldEpisodePage})
	s := &aniworldScraper{http: client}

	title, err := s.EpisodeTitle(context.Background(), srv.URL+"/anime/stream/demo/staffel-1/episode-1", false)
	require.NoError(t, err)
	assert.Equal(t, "Der Anfang", title)

	title, err = s.EpisodeTitle(context.Background(), srv.URL+"/anime/stream/demo/staffel-1/episode-1", true)
	require.NoError(t, err)
	assert.Equal(t, "The Beginning", title, "preferEnglish skips the German-title lookup entirely")
}
