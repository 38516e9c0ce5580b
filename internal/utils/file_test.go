package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileExtension(t *testing.T) {
	assert.Equal(t, "jpg", GetFileExtension("a/b/Photo.JPG"))
	assert.Equal(t, "", GetFileExtension("noext"))
	assert.True(t, IsImageFile("x.webp"))
	assert.False(t, IsImageFile("x.txt"))
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "photo_custom_400x200.png"),
		OutputFilename("in/photo.jpg", "out", "Custom 400X200", "png"))
	assert.Equal(t, filepath.Join("out", "photo_circle.jpg"),
		OutputFilename("in/photo.jpg", "out", "Circle", ""))
	assert.Equal(t, "photo_square.png", OutputFilename("photo", "", "Square", ""))
}

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	f := filepath.Join(dir, "x.png")
	assert.False(t, FileExists(f))
	require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
	assert.True(t, FileExists(f))
	assert.False(t, FileExists(dir))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename(" a/b:c. "))
}
