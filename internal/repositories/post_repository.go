package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

// PostRepository abstracts post, like and comment persistence.
type PostRepository interface {
	CreatePost(ctx context.Context, authorID int, caption string, imageURL string) (models.Post, error)
	GetPost(ctx context.Context, postID int) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	LikePost(ctx context.Context, postID int, userID int) (bool, error)
	UnlikePost(ctx context.Context, postID int, userID int) error
	AddComment(ctx context.Context, postID int, authorID int, text string) (models.Comment, error)
	ListComments(ctx context.Context, postID int) ([]models.Comment, error)
	GetCounts(ctx context.Context, postID int) (models.PostCounts, error)
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

// CreatePost stores a new post.
func (r *PostRepo) CreatePost(ctx context.Context, authorID int, caption string, imageURL string) (models.Post, error) {
	var post models.Post
	err := r.db.QueryRowxContext(ctx, `INSERT INTO posts (author_id, caption, image_url) VALUES ($1, $2, $3)
        RETURNING id, author_id, caption, image_url, created_at`, authorID, caption, imageURL).
		Scan(&post.ID, &post.AuthorID, &post.Caption, &post.ImageURL, &post.CreatedAt)
	return post, err
}

// GetPost fetches a post by id.
func (r *PostRepo) GetPost(ctx context.Context, postID int) (models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, `SELECT id, author_id, caption, image_url, created_at FROM posts WHERE id=$1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// ListPosts returns the feed, newest first.
func (r *PostRepo) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, `SELECT id, author_id, caption, image_url, created_at FROM posts ORDER BY created_at DESC`)
	return posts, err
}

// LikePost records a like and reports whether it was newly added.
func (r *PostRepo) LikePost(ctx context.Context, postID int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
        ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UnlikePost removes a like; removing a like that was never set is a no-op.
func (r *PostRepo) UnlikePost(ctx context.Context, postID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2`, postID, userID)
	return err
}

// AddComment stores a comment on a post.
func (r *PostRepo) AddComment(ctx context.Context, postID int, authorID int, text string) (models.Comment, error) {
	var comment models.Comment
	err := r.db.QueryRowxContext(ctx, `INSERT INTO post_comments (post_id, author_id, text) VALUES ($1, $2, $3)
        RETURNING id, post_id, author_id, text, created_at`, postID, authorID, text).
		Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Text, &comment.CreatedAt)
	return comment, err
}

// ListComments returns a post's comments in creation order.
func (r *PostRepo) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.SelectContext(ctx, &comments, `SELECT id, post_id, author_id, text, created_at FROM post_comments WHERE post_id=$1 ORDER BY created_at ASC`, postID)
	return comments, err
}

// GetCounts returns the post's like and comment totals.
func (r *PostRepo) GetCounts(ctx context.Context, postID int) (models.PostCounts, error) {
	var counts models.PostCounts
	err := r.db.GetContext(ctx, &counts, `SELECT
        (SELECT COUNT(*) FROM post_likes WHERE post_id=$1) AS likes,
        (SELECT COUNT(*) FROM post_comments WHERE post_id=$1) AS comments`, postID)
	return counts, err
}
