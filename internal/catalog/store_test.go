package catalog

import (
	"os"
	"testing"

	"github.com/atreides/aniwatch/internal/models"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "aniwatch-test-*.db")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	s, err := Open(tmpfile.Name(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertSeries_NewThenNoop(t *testing.T) {
	s := setupTestStore(t)

	id, ok := s.UpsertSeries("https://aniworld.to/anime/stream/demo-show", models.SiteAniworld, "Demo Show")
	require.True(t, ok)
	require.NotZero(t, id)

	id2, ok := s.UpsertSeries("https://aniworld.to/anime/stream/demo-show", models.SiteAniworld, "Different Title")
	require.True(t, ok)
	require.Equal(t, id, id2)

	ser, ok := s.GetSeries(id)
	require.True(t, ok)
	require.Equal(t, "Demo Show", ser.Title, "active-row upsert is a no-op on title")
}

func TestUpsertSeries_RevivesSoftDeleted(t *testing.T) {
	s := setupTestStore(t)
	id, _ := s.UpsertSeries("https://s.to/serie/stream/demo", models.SiteSTo, "Demo")
	require.True(t, s.UpdateSeries(id, SeriesUpdate{Progress: &models.Progress{LastSeason: 2, LastEpisode: 5}}))
	require.True(t, s.SoftDelete(id))

	revivedID, ok := s.UpsertSeries("https://s.to/serie/stream/demo", models.SiteSTo, "")
	require.True(t, ok)
	require.Equal(t, id, revivedID)

	ser, _ := s.GetSeries(id)
	require.False(t, ser.Deleted)
	require.Zero(t, ser.Progress.LastSeason)
}

func TestUpdateSeries_CompleteClearsQueue(t *testing.T) {
	s := setupTestStore(t)
	id, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")
	require.True(t, s.QueueAdd(id))
	require.Len(t, s.QueueList(), 1)

	complete := true
	require.True(t, s.UpdateSeries(id, SeriesUpdate{Complete: &complete}))
	require.Empty(t, s.QueueList())
}

func TestGermanCompleteInvariant(t *testing.T) {
	s := setupTestStore(t)
	id, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")

	missing := []string{"https://aniworld.to/anime/stream/demo/staffel-1/episode-3"}
	require.True(t, s.UpdateSeries(id, SeriesUpdate{MissingGerman: &missing}))
	ser, _ := s.GetSeries(id)
	require.NotEmpty(t, ser.MissingGerman)

	empty := []string{}
	require.True(t, s.UpdateSeries(id, SeriesUpdate{MissingGerman: &empty}))
	germanComplete := true
	require.True(t, s.UpdateSeries(id, SeriesUpdate{GermanComplete: &germanComplete}))
	ser, _ = s.GetSeries(id)
	require.Empty(t, ser.MissingGerman)
	require.True(t, ser.GermanComplete)
}

func TestQueueAdd_RefusesCompleteOrDuplicate(t *testing.T) {
	s := setupTestStore(t)
	id, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")

	require.True(t, s.QueueAdd(id))
	require.False(t, s.QueueAdd(id), "already queued")

	id2, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo2", models.SiteAniworld, "Demo 2")
	complete := true
	s.UpdateSeries(id2, SeriesUpdate{Complete: &complete})
	require.False(t, s.QueueAdd(id2), "complete series refused")
}

func TestQueueReorder_Determinism(t *testing.T) {
	s := setupTestStore(t)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo"+string(rune('a'+i)), models.SiteAniworld, "Demo")
		ids = append(ids, id)
		s.QueueAdd(id)
	}
	items := s.QueueList()
	require.Len(t, items, 3)

	reversed := []int64{items[2].ID, items[1].ID, items[0].ID}
	require.True(t, s.QueueReorder(reversed))

	got := s.QueueList()
	require.Equal(t, reversed, []int64{got[0].ID, got[1].ID, got[2].ID})

	// A newly added item appears after all existing positions.
	id4, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo-new", models.SiteAniworld, "Demo New")
	s.QueueAdd(id4)
	got = s.QueueList()
	require.Equal(t, id4, got[len(got)-1].SeriesID)
}

func TestHardDelete_RemovesQueueEntries(t *testing.T) {
	s := setupTestStore(t)
	id, _ := s.UpsertSeries("https://aniworld.to/anime/stream/demo", models.SiteAniworld, "Demo")
	s.QueueAdd(id)
	require.True(t, s.HardDelete(id))
	require.Empty(t, s.QueueList())
	_, ok := s.GetSeries(id)
	require.False(t, ok)
}

func TestReindexSeriesIDs_RemapsQueue(t *testing.T) {
	s := setupTestStore(t)
	id1, _ := s.UpsertSeries("https://aniworld.to/anime/stream/a", models.SiteAniworld, "A")
	id2, _ := s.UpsertSeries("https://aniworld.to/anime/stream/b", models.SiteAniworld, "B")
	s.QueueAdd(id2)

	// Simulate a hole by hard-deleting the first series, then inserting
	// a third so the remaining ids are non-contiguous.
	require.True(t, s.HardDelete(id1))
	id3, _ := s.UpsertSeries("https://aniworld.to/anime/stream/c", models.SiteAniworld, "C")
	_ = id3

	require.NoError(t, s.reindexSeriesIDs())

	rows := s.ListSeries(ListFilter{})
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].ID)
	require.Equal(t, int64(2), rows[1].ID)

	// The queue item that pointed at "B" must still resolve to B after
	// the remap, addressed now by its possibly-changed id.
	q := s.QueueList()
	require.Len(t, q, 1)
	require.Equal(t, "https://aniworld.to/anime/stream/b", q[0].SeriesURL)
}
