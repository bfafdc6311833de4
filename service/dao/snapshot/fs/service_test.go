package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tickos/service/dao/snapshot/daotest"
)

func TestService(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "snapshots")
	srv, err := New(baseDir)
	require.NoError(t, err)

	info, err := os.Stat(baseDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "notes.txt"), []byte("skip me"), 0644))
	daotest.Run(t, srv)

	_, err = os.Stat(filepath.Join(baseDir, "s1.json"))
	assert.NoError(t, err)
}

func TestNew_EmptyBasePath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
