package domain

import "time"

// Authoritative corpus tables. The coordination server only ever reads
// these, for deduplicating community submissions; an external pipeline
// owns their contents.

// Video is an entry of the authoritative video corpus.
type Video struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string {
	return "videos"
}

// Playlist is an entry of the authoritative playlist corpus.
type Playlist struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Playlist.
func (Playlist) TableName() string {
	return "playlists"
}

// Channel is an entry of the authoritative channel corpus.
type Channel struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Channel.
func (Channel) TableName() string {
	return "channels"
}

// Staging tables for community submissions. Rows land here after filtering
// and dedup; an external pipeline drains them into the corpus tables.

// UserVideo is a community-submitted video identifier awaiting review.
type UserVideo struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for UserVideo.
func (UserVideo) TableName() string {
	return "user_videos"
}

// UserPlaylist is a community-submitted playlist identifier awaiting review.
type UserPlaylist struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for UserPlaylist.
func (UserPlaylist) TableName() string {
	return "user_playlists"
}

// UserChannel is a community-submitted channel identifier awaiting review.
type UserChannel struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for UserChannel.
func (UserChannel) TableName() string {
	return "user_channels"
}
