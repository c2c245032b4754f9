package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ws, err := Create()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(ws.Dir, "decoded.wav"), ws.DecodedWAV())
	assert.Equal(t, filepath.Join(ws.Dir, "input.mp3"), ws.Upload(".mp3"))

	require.NoError(t, os.WriteFile(ws.DecodedWAV(), []byte("x"), 0644))
	require.NoError(t, ws.Cleanup())

	_, err = os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestStagingCommit(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "song_Musicified")

	st, err := NewStaging(dest)
	require.NoError(t, err)

	midiPath := st.Path("song_Flute.mid")
	pdfPath := st.Path("song_Flute.pdf") // requested but never written
	assert.Equal(t, midiPath, st.Path("song_Flute.mid"))
	require.NoError(t, os.WriteFile(midiPath, []byte("MThd"), 0644))

	// nothing is visible under the final name before commit
	_, err = os.Stat(st.Final("song_Flute.mid"))
	assert.True(t, os.IsNotExist(err))

	published, err := st.Commit()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"song_Flute.mid": filepath.Join(dest, "song_Flute.mid")}, published)

	data, err := os.ReadFile(filepath.Join(dest, "song_Flute.mid"))
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data))

	_, err = os.Stat(pdfPath)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging directory is removed")
}

func TestStagingDiscard(t *testing.T) {
	dest := t.TempDir()

	st, err := NewStaging(dest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.Path("a.mid"), []byte("MThd"), 0644))
	require.NoError(t, st.Discard())

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStagingDiscardRemovesCreatedDir(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "song_Musicified")

	st, err := NewStaging(dest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.Path("a.mid"), []byte("MThd"), 0644))
	require.NoError(t, st.Discard())

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestNewStagingFailsOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := NewStaging(filepath.Join(file, "sub"))
	assert.Error(t, err)
}

func TestStagingDrop(t *testing.T) {
	dest := t.TempDir()

	st, err := NewStaging(dest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.Path("song.mid"), []byte("MThd"), 0644))
	require.NoError(t, os.WriteFile(st.Path("song.pdf"), nil, 0644))

	require.NoError(t, st.Drop("song.pdf"))
	require.NoError(t, st.Drop("never-staged.pdf"))

	published, err := st.Commit()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"song.mid": filepath.Join(dest, "song.mid")}, published)
	assert.NoFileExists(t, filepath.Join(dest, "song.pdf"))
}

func TestStagingCommitRollsBackOnFailure(t *testing.T) {
	dest := t.TempDir()

	st, err := NewStaging(dest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.Path("a.mid"), []byte("MThd"), 0644))
	require.NoError(t, os.WriteFile(st.Path("b.pdf"), []byte("%PDF"), 0644))

	// a non-empty directory in the way makes the second rename fail
	blocker := filepath.Join(dest, "b.pdf")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0755))

	published, err := st.Commit()
	require.Error(t, err)
	assert.Nil(t, published)
	assert.NoFileExists(t, filepath.Join(dest, "a.mid"), "earlier renames are undone")

	require.NoError(t, st.Discard())
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.pdf", entries[0].Name())
}
