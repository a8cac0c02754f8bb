package file

import (
	"os"
	"path/filepath"
	"testing"

	"gstdirectory/pkg/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailedRenameKeepsChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, s.write([]directory.Record{directory.NewRecord("PUNE", "ACME", "")}))
	before := s.lastWrite

	// a non-empty directory in place of the data file makes the rename fail
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0755))

	err = s.write([]directory.Record{directory.NewRecord("MUMBAI", "BETA", "")})
	var se *directory.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "rename", se.Op)
	assert.Equal(t, before, s.lastWrite)

	// no temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}
