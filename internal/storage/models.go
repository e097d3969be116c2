package storage

import "time"

type Author struct {
	ID            string `json:"id" yaml:"id"`
	Username      string `json:"username" yaml:"username"`
	AvatarURL     string `json:"avatar_url" yaml:"avatar_url"`
	HasStory      bool   `json:"has_story" yaml:"has_story"`
	IsFollowing   bool   `json:"is_following" yaml:"is_following"`
	FollowerCount int64  `json:"follower_count" yaml:"follower_count"`
}

// Reel is a single short video in the feed. Only the engagement fields are
// ever changed after a fetch, and only locally.
type Reel struct {
	ID        string    `json:"id" yaml:"id"`
	Author    Author    `json:"author" yaml:"-"`
	AuthorID  string    `json:"-" yaml:"author"`
	VideoURL  string    `json:"video_url" yaml:"video_url"`
	PosterURL string    `json:"poster_url" yaml:"poster_url"`
	Caption   string    `json:"caption" yaml:"caption"`
	AudioName string    `json:"audio_name,omitempty" yaml:"audio_name"`
	Likes     int64     `json:"likes" yaml:"likes"`
	Comments  int64     `json:"comments" yaml:"comments"`
	Shares    int64     `json:"shares" yaml:"shares"`
	Liked     bool      `json:"liked" yaml:"liked"`
	Position  int       `json:"-" yaml:"-"`
	CreatedAt time.Time `json:"-" yaml:"-"`
}
