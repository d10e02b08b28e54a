package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Stage(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "staging"))
	ctx := context.Background()

	files, err := store.Stage(ctx,
		Input{Reader: strings.NewReader("front view"), Name: "front.jpg", MIMEType: "image/jpeg"},
		Input{Reader: strings.NewReader("lobby"), Name: "lobby.png", MIMEType: "image/png"},
	)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "front.jpg", files[0].OriginalName)
	assert.Equal(t, "image/jpeg", files[0].MIMEType)
	assert.Equal(t, int64(len("front view")), files[0].Size)

	// Files exist on disk before Stage returns.
	for _, f := range files {
		_, err := os.Stat(f.Path)
		assert.NoError(t, err, f.Path)
	}

	// Collision-resistant names: staging the same original twice
	// produces distinct paths.
	more, err := store.Stage(ctx,
		Input{Reader: strings.NewReader("again"), Name: "front.jpg", MIMEType: "image/jpeg"},
	)
	require.NoError(t, err)
	assert.NotEqual(t, files[0].Path, more[0].Path)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestStore_StageAbortsOnPartialFailure(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "staging")
	store := New(dir)

	_, err := store.Stage(context.Background(),
		Input{Reader: strings.NewReader("ok"), Name: "a.jpg", MIMEType: "image/jpeg"},
		Input{Reader: failingReader{}, Name: "b.jpg", MIMEType: "image/jpeg"},
	)
	require.ErrorIs(t, err, ErrStageFailed)

	// The successfully staged first file must not survive.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestStore_CleanupIdempotent(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "staging"))
	ctx := context.Background()

	files, err := store.Stage(ctx,
		Input{Reader: strings.NewReader("x"), Name: "a.jpg", MIMEType: "image/jpeg"},
	)
	require.NoError(t, err)

	store.Cleanup(ctx, files)
	_, statErr := os.Stat(files[0].Path)
	assert.True(t, os.IsNotExist(statErr))

	// Cleaning an already-cleaned set must not panic or error.
	assert.NotPanics(t, func() {
		store.Cleanup(ctx, files)
	})
}

func TestStore_SweepOlderThan(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "staging"))
	ctx := context.Background()

	files, err := store.Stage(ctx,
		Input{Reader: strings.NewReader("old"), Name: "old.jpg", MIMEType: "image/jpeg"},
		Input{Reader: strings.NewReader("new"), Name: "new.jpg", MIMEType: "image/jpeg"},
	)
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(files[0].Path, stale, stale))

	removed, err := store.SweepOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(files[0].Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(files[1].Path)
	assert.NoError(t, err)
}

func TestStore_SweepMissingDir(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "never-created"))
	removed, err := store.SweepOlderThan(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"front.jpg", "front.jpg"},
		{"../../etc/passwd", "passwd"},
		{"room view.png", "room_view.png"},
		{"", "file"},
		{"héllo.jpg", "h_llo.jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}
