package models

import "time"

// Post represents a feed post.
type Post struct {
	ID        int       `db:"id" json:"id"`
	AuthorID  int       `db:"author_id" json:"author_id"`
	Caption   string    `db:"caption" json:"caption"`
	ImageURL  string    `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        int       `db:"id" json:"id"`
	PostID    int       `db:"post_id" json:"post_id"`
	AuthorID  int       `db:"author_id" json:"author_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostCounts carries the like/comment totals broadcast after a mutation.
type PostCounts struct {
	Likes    int `db:"likes" json:"likes"`
	Comments int `db:"comments" json:"comments"`
}
