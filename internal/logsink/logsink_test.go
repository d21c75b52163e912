package logsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_ClearLastRunTruncates(t *testing.T) {
	sink, err := New(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.Writer().Write([]byte("first run line\n"))
	require.NoError(t, err)

	lines, err := sink.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, []string{"first run line"}, lines)

	sink.ClearLastRun()
	lines, err = sink.ReadLastRun()
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = sink.Writer().Write([]byte("second run line\n"))
	require.NoError(t, err)
	lines, err = sink.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, []string{"second run line"}, lines)
}

func TestSink_ReadAllLogsAccumulatesAcrossRuns(t *testing.T) {
	sink, err := New(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.Writer().Write([]byte("a\n"))
	require.NoError(t, err)
	sink.ClearLastRun()
	_, err = sink.Writer().Write([]byte("b\n"))
	require.NoError(t, err)

	all, err := sink.ReadAllLogs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)

	last, err := sink.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, last)
}
