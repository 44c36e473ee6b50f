package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts account lookups and the follow graph.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	IsFollowing(ctx context.Context, followerID int, followeeID int) (bool, error)
	Follow(ctx context.Context, followerID int, followeeID int) error
	Unfollow(ctx context.Context, followerID int, followeeID int) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, name, profile_picture, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// IsFollowing reports whether follower already follows followee.
func (r *UserRepo) IsFollowing(ctx context.Context, followerID int, followeeID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND followee_id=$2)`, followerID, followeeID)
	return exists, err
}

// Follow records a follow edge; following twice is a no-op.
func (r *UserRepo) Follow(ctx context.Context, followerID int, followeeID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
        ON CONFLICT (follower_id, followee_id) DO NOTHING`, followerID, followeeID)
	return err
}

// Unfollow removes a follow edge.
func (r *UserRepo) Unfollow(ctx context.Context, followerID int, followeeID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id=$1 AND followee_id=$2`, followerID, followeeID)
	return err
}
