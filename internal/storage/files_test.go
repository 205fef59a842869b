package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), t.TempDir())
}

func TestSavePDF_UsesDocumentIDFilename(t *testing.T) {
	uploadDir := t.TempDir()
	fs := NewFileStore(uploadDir, t.TempDir())

	filename, err := fs.SavePDF("doc-123", []byte("%PDF-1.4"))

	require.NoError(t, err)
	assert.Equal(t, "doc-123.pdf", filename)

	data, err := os.ReadFile(filepath.Join(uploadDir, filename))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestSaveImage_FilenameConvention(t *testing.T) {
	imageDir := t.TempDir()
	fs := NewFileStore(t.TempDir(), imageDir)

	filename, err := fs.SaveImage("doc-123", 2, 1, "png", []byte{0x89, 0x50})

	require.NoError(t, err)
	assert.Equal(t, "doc-123_page_2_image_1.png", filename)
	assert.FileExists(t, filepath.Join(imageDir, filename))
}

func TestRemoveImage_IsIdempotent(t *testing.T) {
	fs := newTestStore(t)

	filename, err := fs.SaveImage("doc-1", 1, 1, "png", []byte{0x01})
	require.NoError(t, err)

	require.NoError(t, fs.RemoveImage(filename))
	assert.False(t, fs.ImageExists(filename))

	// Removing again is still a success
	assert.NoError(t, fs.RemoveImage(filename))
}

func TestRemovePDF_IsIdempotent(t *testing.T) {
	fs := newTestStore(t)

	filename, err := fs.SavePDF("doc-1", []byte("%PDF"))
	require.NoError(t, err)

	require.NoError(t, fs.RemovePDF(filename))
	assert.NoError(t, fs.RemovePDF(filename))
	assert.NoError(t, fs.RemovePDF("never-existed.pdf"))
}

func TestImagePath_StripsDirectoryTraversal(t *testing.T) {
	imageDir := t.TempDir()
	fs := NewFileStore(t.TempDir(), imageDir)

	path := fs.ImagePath("../../etc/passwd")

	assert.Equal(t, filepath.Join(imageDir, "passwd"), path)
}

func TestImageExists(t *testing.T) {
	fs := newTestStore(t)

	assert.False(t, fs.ImageExists("nope.png"))

	filename, err := fs.SaveImage("doc-1", 1, 1, "jpg", []byte{0xFF})
	require.NoError(t, err)
	assert.True(t, fs.ImageExists(filename))
}
