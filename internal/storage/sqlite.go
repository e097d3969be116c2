package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorage is the reel catalog. The feed reads it page by page.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS authors (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		has_story BOOLEAN DEFAULT FALSE,
		is_following BOOLEAN DEFAULT FALSE,
		follower_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS reels (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL REFERENCES authors(id),
		position INTEGER NOT NULL,
		video_url TEXT NOT NULL UNIQUE,
		poster_url TEXT NOT NULL DEFAULT '',
		caption TEXT NOT NULL DEFAULT '',
		audio_name TEXT NOT NULL DEFAULT '',
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		shares INTEGER DEFAULT 0,
		liked BOOLEAN DEFAULT FALSE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reels_position ON reels(position);
	CREATE INDEX IF NOT EXISTS idx_reels_author ON reels(author_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Authors
func (s *SQLiteStorage) UpsertAuthor(ctx context.Context, a *Author) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (id, username, avatar_url, has_story, is_following, follower_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			avatar_url = excluded.avatar_url,
			has_story = excluded.has_story,
			is_following = excluded.is_following,
			follower_count = excluded.follower_count
	`, a.ID, a.Username, a.AvatarURL, a.HasStory, a.IsFollowing, a.FollowerCount)

	return err
}

// Reels

const reelColumns = `
	r.id, r.author_id, r.position, r.video_url, r.poster_url, r.caption, r.audio_name,
	r.likes, r.comments, r.shares, r.liked, r.created_at,
	a.id, a.username, a.avatar_url, a.has_story, a.is_following, a.follower_count
`

// CreateReel appends r after the last reel in the catalog. Re-importing a
// video URL that is already present only refreshes its caption.
func (s *SQLiteStorage) CreateReel(ctx context.Context, r *Reel) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reels (
			id, author_id, position, video_url, poster_url, caption, audio_name,
			likes, comments, shares, liked, created_at
		) VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM reels), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_url) DO UPDATE SET
			caption = excluded.caption
	`,
		r.ID, r.AuthorID, r.VideoURL, r.PosterURL, r.Caption, r.AudioName,
		r.Likes, r.Comments, r.Shares, r.Liked, r.CreatedAt,
	)

	return err
}

// GetReel returns nil, nil when the reel does not exist.
func (s *SQLiteStorage) GetReel(ctx context.Context, id string) (*Reel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reelColumns+`
		FROM reels r JOIN authors a ON a.id = r.author_id
		WHERE r.id = ?
	`, id)

	r, err := scanReel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return r, nil
}

// FetchPage returns the 1-based page of reels in catalog order. Pages past
// the end are empty, not an error.
func (s *SQLiteStorage) FetchPage(ctx context.Context, page, size int) ([]Reel, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("invalid page %d/size %d", page, size)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reelColumns+`
		FROM reels r JOIN authors a ON a.id = r.author_id
		ORDER BY r.position
		LIMIT ? OFFSET ?
	`, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reels []Reel
	for rows.Next() {
		r, err := scanReel(rows)
		if err != nil {
			return nil, err
		}
		reels = append(reels, *r)
	}

	return reels, rows.Err()
}

func (s *SQLiteStorage) CountReels(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reels").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReel(row rowScanner) (*Reel, error) {
	var r Reel
	var createdAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.AuthorID, &r.Position, &r.VideoURL, &r.PosterURL, &r.Caption, &r.AudioName,
		&r.Likes, &r.Comments, &r.Shares, &r.Liked, &createdAt,
		&r.Author.ID, &r.Author.Username, &r.Author.AvatarURL,
		&r.Author.HasStory, &r.Author.IsFollowing, &r.Author.FollowerCount,
	)
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		r.CreatedAt = createdAt.Time
	}

	return &r, nil
}
