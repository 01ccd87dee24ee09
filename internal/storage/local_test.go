package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "media"), "http://localhost:8080/media/")
	require.NoError(t, err)

	url, err := store.Save(ctx, "videos/m_1.mp4", []byte("data"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/videos/m_1.mp4", url)

	got, err := os.ReadFile(filepath.Join(dir, "media", "videos", "m_1.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	// overwrite
	_, err = store.Save(ctx, "videos/m_1.mp4", []byte("new"), "video/mp4")
	require.NoError(t, err)
	got, _ = os.ReadFile(filepath.Join(dir, "media", "videos", "m_1.mp4"))
	assert.Equal(t, "new", string(got))

	require.NoError(t, store.Delete(ctx, "videos/m_1.mp4"))
	require.NoError(t, store.Delete(ctx, "videos/m_1.mp4"))
	_, err = os.Stat(filepath.Join(dir, "media", "videos", "m_1.mp4"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://x")
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../etc/passwd", "videos/../../x"} {
		_, err := store.Save(context.Background(), key, []byte("x"), "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "a.mp4", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}
