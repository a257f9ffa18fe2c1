package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/vectorstore"
	"pdfqa/utils"
)

func TestUploadStorageSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUploadStorage(dir, 4)
	require.NoError(t, err)

	payload := strings.Repeat("0123456789", 10)
	path, n, err := store.Save("owner-1", "report.pdf", strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, filepath.Join(dir, "owner-1_report.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestUploadStoragePathStripsFilenameDirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUploadStorage(dir, 0)
	require.NoError(t, err)

	p, err := store.Path("abc", "../../passwd.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc_passwd.pdf"), p)
}

func TestUploadStorageRejectsUnsafeOwners(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUploadStorage(dir, 0)
	require.NoError(t, err)

	for _, owner := range []string{"../../etc", "x/abc", ""} {
		_, err := store.Path(owner, "f.pdf")
		assert.ErrorIs(t, err, vectorstore.ErrInvalidOwner, owner)
		assert.Equal(t, utils.KindValidation, utils.KindOf(err), owner)

		_, _, err = store.Save(owner, "f.pdf", strings.NewReader("data"))
		assert.Error(t, err, owner)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadStorageOverwrites(t *testing.T) {
	store, err := NewUploadStorage(t.TempDir(), 1024)
	require.NoError(t, err)

	_, _, err = store.Save("a", "f.pdf", bytes.NewReader([]byte("first version")))
	require.NoError(t, err)
	path, _, err := store.Save("a", "f.pdf", bytes.NewReader([]byte("v2")))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
