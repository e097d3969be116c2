package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"reelview/internal/storage"
)

//go:embed seed.yaml
var seedYAML []byte

type seedData struct {
	Authors []storage.Author `yaml:"authors"`
	Reels   []storage.Reel   `yaml:"reels"`
}

func parseSeed(data []byte) (*seedData, error) {
	var sd seedData
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	known := make(map[string]bool, len(sd.Authors))
	for _, a := range sd.Authors {
		known[a.ID] = true
	}
	for _, r := range sd.Reels {
		if r.ID == "" || r.VideoURL == "" {
			return nil, fmt.Errorf("seed reel %q: id and video_url are required", r.ID)
		}
		if !known[r.AuthorID] {
			return nil, fmt.Errorf("seed reel %q: unknown author %q", r.ID, r.AuthorID)
		}
	}

	return &sd, nil
}

// Seed loads the built-in catalog into an empty store. It returns the number
// of reels written; a store that already holds reels is left alone.
func Seed(ctx context.Context, store *storage.SQLiteStorage, logger zerolog.Logger) (int, error) {
	return seed(ctx, store, seedYAML, logger)
}

func seed(ctx context.Context, store *storage.SQLiteStorage, data []byte, logger zerolog.Logger) (int, error) {
	count, err := store.CountReels(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Debug().Int("reels", count).Msg("catalog already populated, skipping seed")
		return 0, nil
	}

	sd, err := parseSeed(data)
	if err != nil {
		return 0, err
	}

	for i := range sd.Authors {
		if err := store.UpsertAuthor(ctx, &sd.Authors[i]); err != nil {
			return 0, fmt.Errorf("seed author %s: %w", sd.Authors[i].ID, err)
		}
	}
	for i := range sd.Reels {
		if err := store.CreateReel(ctx, &sd.Reels[i]); err != nil {
			return 0, fmt.Errorf("seed reel %s: %w", sd.Reels[i].ID, err)
		}
	}

	logger.Info().
		Int("authors", len(sd.Authors)).
		Int("reels", len(sd.Reels)).
		Msg("catalog seeded")

	return len(sd.Reels), nil
}
