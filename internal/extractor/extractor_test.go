package extractor

import (
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestToFramesMapsIDsAndTimestamps(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "frame_0002.jpg")
	touch(t, dir, "frame_0001.jpg")
	touch(t, dir, "frame_0010.jpg")
	touch(t, dir, "notes.txt")

	e := New(5, testLogger())
	frames := e.toFrames(dir, listFrameFiles(dir))

	require.Len(t, frames, 3)
	assert.Equal(t, "frame_0001", frames[0].ID)
	assert.Equal(t, 0.0, frames[0].Timestamp)
	assert.Equal(t, "frame_0002", frames[1].ID)
	assert.Equal(t, 5.0, frames[1].Timestamp)
	assert.Equal(t, "frame_0010", frames[2].ID)
	assert.Equal(t, 45.0, frames[2].Timestamp)
}

func TestToFramesSkipsUnrecognizedNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "frame_0001.jpg")
	touch(t, dir, "cover.jpg")

	e := New(2, testLogger())
	frames := e.toFrames(dir, listFrameFiles(dir))

	require.Len(t, frames, 1)
	assert.Equal(t, "frame_0001", frames[0].ID)
}

func TestListFrameFilesMissingDir(t *testing.T) {
	assert.Empty(t, listFrameFiles(filepath.Join(t.TempDir(), "nope")))
}

func TestFileSourceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame_0001.jpg")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8)), nil))
	require.NoError(t, f.Close())

	src := NewFileSource(path)
	assert.Equal(t, path, src.Path())

	img, err := src.Image()
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "gone.jpg"))
	_, err := src.Image()
	assert.Error(t, err)
}
