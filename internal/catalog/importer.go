package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"reelview/internal/media"
	"reelview/internal/storage"
)

// Importer turns a directory of video files into reels.
type Importer struct {
	storage *storage.SQLiteStorage
	logger  zerolog.Logger
}

func NewImporter(store *storage.SQLiteStorage, logger zerolog.Logger) *Importer {
	return &Importer{
		storage: store,
		logger:  logger.With().Str("component", "importer").Logger(),
	}
}

// ImportDir walks root and appends every supported video as a reel owned by
// author. Hidden directories are skipped. Files already imported keep their
// position.
func (i *Importer) ImportDir(ctx context.Context, root string, author storage.Author) (int, error) {
	if root == "" {
		i.logger.Warn().Msg("no library path configured")
		return 0, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, nil
	}

	root, err = filepath.Abs(filepath.Clean(root))
	if err != nil {
		return 0, err
	}
	if err := i.storage.UpsertAuthor(ctx, &author); err != nil {
		return 0, err
	}

	i.logger.Info().Str("path", root).Str("author", author.Username).Msg("importing library")

	n, err := i.scanDirectory(ctx, root, author.ID)
	if err != nil {
		return n, err
	}

	i.logger.Info().Str("path", root).Int("reels", n).Msg("library imported")
	return n, nil
}

func (i *Importer) scanDirectory(ctx context.Context, dirPath, authorID string) (int, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return 0, err
	}

	var imported int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		fullPath := filepath.Join(dirPath, entry.Name())

		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			n, err := i.scanDirectory(ctx, fullPath, authorID)
			if err != nil {
				i.logger.Error().Err(err).Str("path", fullPath).Msg("failed to scan subfolder")
			}
			imported += n
			continue
		}

		if !media.IsSupportedVideo(entry.Name()) {
			continue
		}

		id := "lib-" + generateID(fullPath)
		existing, err := i.storage.GetReel(ctx, id)
		if err != nil {
			i.logger.Error().Err(err).Str("path", fullPath).Msg("failed to look up reel")
			continue
		}
		if existing != nil {
			continue
		}

		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		videoURL := fileURL(fullPath)
		reel := &storage.Reel{
			ID:        id,
			AuthorID:  authorID,
			VideoURL:  videoURL,
			PosterURL: videoURL,
			Caption:   title,
		}

		if err := i.storage.CreateReel(ctx, reel); err != nil {
			i.logger.Error().Err(err).Str("path", fullPath).Msg("failed to create reel")
			continue
		}

		imported++
		i.logger.Debug().
			Str("title", title).
			Str("content_type", media.ContentType(entry.Name())).
			Msg("added reel")
	}

	return imported, nil
}

func fileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func generateID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
