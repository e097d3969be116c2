package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"reelview/internal/media"
	"reelview/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeed_LoadsBuiltinCatalog(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	n, err := Seed(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 10, n)

	page, err := store.FetchPage(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	require.Equal(t, "reel1", page[0].ID)
	require.Equal(t, "jessicahayes", page[0].Author.Username)
	require.Equal(t, int64(124500), page[0].Likes)
	require.True(t, page[1].Liked)

	reel, err := store.GetReel(ctx, "reel10")
	require.NoError(t, err)
	require.Equal(t, "creativecook", reel.Author.Username)
}

func TestSeed_SkipsPopulatedStore(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := Seed(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	n, err := Seed(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	require.Zero(t, n)

	count, err := store.CountReels(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, count)
}

func TestSeed_RejectsUnknownAuthor(t *testing.T) {
	store := newTestStorage(t)
	data := []byte(`
authors:
  - id: user1
    username: someone
reels:
  - id: reel1
    author: ghost
    video_url: https://cdn.example/1.mp4
`)

	_, err := seed(context.Background(), store, data, zerolog.Nop())
	require.ErrorContains(t, err, "unknown author")
}

func TestImporter_ImportDir(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	root := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
	write("sunset.mp4")
	write("notes.txt")
	write("trips/norway.mov")
	write(".cache/hidden.mp4")

	imp := NewImporter(store, zerolog.Nop())
	author := storage.Author{ID: "library", Username: "library"}

	n, err := imp.ImportDir(ctx, root, author)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	reels, err := store.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, reels, 2)

	var captions []string
	for _, r := range reels {
		captions = append(captions, r.Caption)
		require.True(t, strings.HasPrefix(r.ID, "lib-"))
		require.Equal(t, "library", r.Author.Username)

		path, ok := media.LocalPath(r.VideoURL)
		require.True(t, ok)
		_, err := os.Stat(path)
		require.NoError(t, err)
	}
	require.ElementsMatch(t, []string{"sunset", "norway"}, captions)

	n, err = imp.ImportDir(ctx, root, author)
	require.NoError(t, err)
	require.Zero(t, n)
	count, err := store.CountReels(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestImporter_MissingPath(t *testing.T) {
	imp := NewImporter(newTestStorage(t), zerolog.Nop())

	n, err := imp.ImportDir(context.Background(), "", storage.Author{ID: "library"})
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = imp.ImportDir(context.Background(), filepath.Join(t.TempDir(), "nope"), storage.Author{ID: "library"})
	require.Error(t, err)
}
