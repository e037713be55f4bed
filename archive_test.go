package archivox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	archive, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer archive.Close()

	require.NotNil(t, archive.Store())
	require.NotNil(t, archive.Embedder())

	count, err := archive.Store().Count(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestArchive_NewSearcherAndPipeline(t *testing.T) {
	archive, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer archive.Close()

	searcher, err := archive.NewSearcher("general")
	require.NoError(t, err)
	assert.NotNil(t, searcher)

	pipeline, err := archive.NewPipeline(nil, "general")
	require.NoError(t, err)
	defer pipeline.Release()
	assert.NotNil(t, pipeline)
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()

	archive, err := Open(dir + "/archive")
	require.NoError(t, err)
	require.NoError(t, archive.Close())

	// Reopening the same path works.
	archive, err = Open(dir + "/archive")
	require.NoError(t, err)
	require.NoError(t, archive.Close())
}
