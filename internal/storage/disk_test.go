package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_PutIsStableAndOverwrites(t *testing.T) {
	root := t.TempDir()
	d, err := NewDisk(root, "http://localhost:8080/media/")
	require.NoError(t, err)

	url, err := d.Put(context.Background(), "profile/user_1", strings.NewReader("one"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/profile/user_1", url)

	again, err := d.Put(context.Background(), "profile/user_1", strings.NewReader("two"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, url, again)

	data, err := os.ReadFile(filepath.Join(root, "profile", "user_1"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestDisk_PathsStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	d, err := NewDisk(root, "http://localhost/media")
	require.NoError(t, err)

	url, err := d.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/media/etc/passwd", url)
	_, err = os.Stat(filepath.Join(root, "etc", "passwd"))
	assert.NoError(t, err)
}

func TestDetectImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ct, ext, ok := DetectImage(png)
	assert.True(t, ok)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	_, ext, ok = DetectImage(jpeg)
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, _, ok = DetectImage([]byte("hello world"))
	assert.False(t, ok)
}
