package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) IsFollowing(ctx context.Context, followerID int, followeeID int) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) Follow(ctx context.Context, followerID int, followeeID int) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *UserRepositoryMock) Unfollow(ctx context.Context, followerID int, followeeID int) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) GetOrCreateConversation(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *MessageRepositoryMock) FindConversation(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID int, senderID int, receiverID int, content string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, receiverID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversationMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, authorID int, caption string, imageURL string) (models.Post, error) {
	args := m.Called(ctx, authorID, caption, imageURL)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) GetPost(ctx context.Context, postID int) (models.Post, error) {
	args := m.Called(ctx, postID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) ListPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostRepositoryMock) LikePost(ctx context.Context, postID int, userID int) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *PostRepositoryMock) UnlikePost(ctx context.Context, postID int, userID int) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *PostRepositoryMock) AddComment(ctx context.Context, postID int, authorID int, text string) (models.Comment, error) {
	args := m.Called(ctx, postID, authorID, text)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	return comment, args.Error(1)
}

func (m *PostRepositoryMock) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	var comments []models.Comment
	if val := args.Get(0); val != nil {
		comments = val.([]models.Comment)
	}
	return comments, args.Error(1)
}

func (m *PostRepositoryMock) GetCounts(ctx context.Context, postID int) (models.PostCounts, error) {
	args := m.Called(ctx, postID)
	var counts models.PostCounts
	if val := args.Get(0); val != nil {
		counts = val.(models.PostCounts)
	}
	return counts, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PostRepository = (*PostRepositoryMock)(nil)
